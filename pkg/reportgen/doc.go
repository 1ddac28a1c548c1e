// Package reportgen fills document templates with data from a record data source.
//
// A template is a tree of markup nodes (a DOCX document, an HTML page) whose text
// carries placeholder tags. Simple tags are replaced by a value; block tags mark a
// row template that is repeated once per row of a dataset.
//
// # Tag Syntax
//
//	{{key}}                  - Field value, or a dataset column inside a block
//	{<dataset:row:column>}   - One cell of a dataset
//	{[dataset]}              - Start of a repeating block
//	{#dataset#}              - End of a repeating block
//
// Keys are matched case-insensitively against a KeyMap. With auto-mapping enabled a
// numeric key that is not in the map is looked up as a property id.
//
// # Quick Start
//
//	data := dataset.New()
//	title := data.AddField("title", reportgen.ScalarValue)
//	data.SetValue(title, "Monthly report")
//
//	gen := reportgen.New(html.NewBackend())
//	err := gen.Generate(data, data.Keys(), false, template, os.Stdout)
//
// # Backends
//
// Document formats implement Backend. Packed formats split their container into
// parts in Unpack; every part marked as a template is parsed and filled separately,
// and the container is only packed again when all parts succeeded.
//
// # Configuration
//
// Defaults come from DefaultConfig and can be overridden with REPORTGEN_*
// environment variables or per generator with WithConfig.
package reportgen
