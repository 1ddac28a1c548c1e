package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = `<html><body>` +
	`<h1>{{title}}</h1>` +
	`<table>` +
	`<tr><td>{[items]}</td></tr>` +
	`<tr><td>{{item}}</td><td>{{qty}}</td></tr>` +
	`<tr><td>{#items#}</td></tr>` +
	`</table>` +
	`</body></html>`

const testData = `fields:
  - name: title
    value: Monthly report
tables:
  - name: items
    columns:
      - name: item
      - name: qty
    rows:
      - [Apple, 3]
      - [Pear, 5]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	template := writeFile(t, dir, "report.html", testTemplate)
	data := writeFile(t, dir, "report.yml", testData)
	out := filepath.Join(dir, "out")

	stdout, err := execute(t, "generate", "-t", template, "-d", data, "-o", out, "--log-level", "off")
	require.NoError(t, err)
	assert.Equal(t, "Generated "+out+".html\n", stdout)

	result, err := os.ReadFile(out + ".html")
	require.NoError(t, err)
	assert.Contains(t, string(result), "<h1>Monthly report</h1>")
	assert.Contains(t, string(result), "<tr><td>Apple</td><td>3</td></tr><tr><td>Pear</td><td>5</td></tr>")
	assert.NotContains(t, string(result), "{[items]}")
}

func TestGenerateCommandErrors(t *testing.T) {
	dir := t.TempDir()
	template := writeFile(t, dir, "report.html", testTemplate)
	data := writeFile(t, dir, "report.yml", testData)
	text := writeFile(t, dir, "report.txt", "{{title}}")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing settings",
			args: []string{"generate", "-t", template},
			want: "missing required settings: --data, --out",
		},
		{
			name: "unknown extension",
			args: []string{"generate", "-t", text, "-d", data, "-o", filepath.Join(dir, "x")},
			want: "cannot detect the format",
		},
		{
			name: "unsupported format",
			args: []string{"generate", "-t", template, "-d", data, "-o", filepath.Join(dir, "x"), "--format", "pdf"},
			want: "unsupported format: pdf",
		},
		{
			name: "invalid log level",
			args: []string{"generate", "-t", template, "-d", data, "-o", filepath.Join(dir, "x"), "--log-level", "loud"},
			want: "invalid log level",
		},
		{
			name: "missing data file",
			args: []string{"generate", "-t", template, "-d", filepath.Join(dir, "none.yml"), "-o", filepath.Join(dir, "x")},
			want: "none.yml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFailedGenerationLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	template := writeFile(t, dir, "report.html", "<p>{{title</p><p>}}</p>")
	data := writeFile(t, dir, "report.yml", testData)
	out := filepath.Join(dir, "out.html")

	_, err := execute(t, "generate", "-t", template, "-d", data, "-o", out, "--log-level", "off")
	require.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "report.yml", testData)

	good := writeFile(t, dir, "good.html", testTemplate)
	stdout, err := execute(t, "validate", "-t", good, "-d", data, "--log-level", "off")
	require.NoError(t, err)
	assert.Equal(t, "Template "+good+" is valid\n", stdout)

	bad := writeFile(t, dir, "bad.html", "<p>{{title</p><p>}}</p>")
	_, err = execute(t, "validate", "-t", bad, "-d", data, "--log-level", "off")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found not closed tag")
}

func TestConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	template := writeFile(t, dir, "report.html", testTemplate)
	data := writeFile(t, dir, "report.yml", testData)
	out := filepath.Join(dir, "from-config.html")

	config := writeFile(t, dir, "reportgen.yml",
		"template: "+template+"\nout: "+out+"\nlog-level: \"off\"\n")
	t.Setenv("REPORTGEN_DATA", data)

	stdout, err := execute(t, "generate", "--config", config)
	require.NoError(t, err)
	assert.Equal(t, "Generated "+out+"\n", stdout)
	assert.FileExists(t, out)

	_, err = execute(t, "generate", "--config", filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestVersionCommand(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "reportgen "+version), stdout)

	stdout, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info buildInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, version, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	_, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestFileWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "template.html", "a")
	other := writeFile(t, dir, "other.txt", "a")

	fw, err := newFileWatcher(50*time.Millisecond, target)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- fw.Run(ctx, func(paths []string) error {
			changes <- paths
			return nil
		})
	}()

	abs, err := filepath.Abs(target)
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	var got []string
	for got == nil {
		select {
		case got = <-changes:
		case <-tick.C:
			require.NoError(t, os.WriteFile(other, []byte("b"), 0o644))
			require.NoError(t, os.WriteFile(target, []byte("b"), 0o644))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
	assert.Equal(t, []string{abs}, got)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchRegenerates(t *testing.T) {
	dir := t.TempDir()
	template := writeFile(t, dir, "report.html", testTemplate)
	data := writeFile(t, dir, "report.yml", testData)
	out := filepath.Join(dir, "watched.html")

	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, cmd, options{
			Template: template,
			Data:     data,
			Out:      out,
			LogLevel: "off",
			Debounce: 50 * time.Millisecond,
		})
	}()

	waitFor := func(want string, touch func()) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if content, err := os.ReadFile(out); err == nil && strings.Contains(string(content), want) {
				return
			}
			if touch != nil {
				touch()
			}
			time.Sleep(100 * time.Millisecond)
		}
		t.Fatalf("output never contained %q", want)
	}

	waitFor("<h1>Monthly report</h1>", nil)

	updated := strings.Replace(testData, "Monthly report", "Weekly report", 1)
	waitFor("<h1>Weekly report</h1>", func() {
		require.NoError(t, os.WriteFile(data, []byte(updated), 0o644))
	})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
