package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	configPath, logLevel, rulePack = "", "warn", ""
	scanFormat, scanMIMEType, scanFailOn = "text", "", ""
	classifyFormat, rulesFormat = "text", "text"
	batchOutput, batchFormat, batchWorkers, batchText, batchID = "", "", 0, "", ""

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanText(t *testing.T) {
	path := writeFile(t, "note.txt", "Số điện thoại 0912345678")

	out, err := run(t, "", "scan", path)
	require.NoError(t, err)
	assert.Contains(t, out, "note.txt: 1 findings, risk 15 (low)")
	assert.Contains(t, out, "PHONE")
	assert.Contains(t, out, "classification: NOT_CLASSIFIED")
}

func TestScanJSON(t *testing.T) {
	path := writeFile(t, "secret.txt", "Password: mySecretPassword123")

	out, err := run(t, "", "scan", "--format", "json", path)
	require.NoError(t, err)

	var report analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "secret.txt", report.Filename)
	assert.Equal(t, 4, report.TotalMatches)
	assert.Equal(t, risk.LevelCritical, report.Risk.Level)
}

func TestScanStdinSensitiveInfo(t *testing.T) {
	out, err := run(t, "Số điện thoại 0912345678", "scan", "-f", "sensitive-info", "-")
	require.NoError(t, err)

	var info analysis.SensitiveInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 1, info.TotalItems)
	assert.Equal(t, "PHONE", info.Items[0].Type)
}

func TestScanFailOn(t *testing.T) {
	path := writeFile(t, "note.txt", "Số điện thoại 0912345678")

	_, err := run(t, "", "scan", "--fail-on", "low", path)
	assert.ErrorContains(t, err, "risk level low reached")

	_, err = run(t, "", "scan", "--fail-on", "high", path)
	assert.NoError(t, err)

	_, err = run(t, "", "scan", "--fail-on", "extreme", path)
	assert.Error(t, err)
}

func TestScanUnsupported(t *testing.T) {
	path := writeFile(t, "scan.pdf", "%PDF-1.4")

	_, err := run(t, "", "scan", path)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	out, err := run(t, "", "classify", "Bệnh án của bệnh nhân, api key: xyz")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "PERSONAL_SENSITIVE, INTERNAL_SENSITIVE\n"), out)

	out, err = run(t, "Hôm nay trời đẹp", "classify", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"NOT_CLASSIFIED"`)
}

func TestRulesCommand(t *testing.T) {
	out, err := run(t, "", "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "PHONE")
	assert.Contains(t, out, "Số điện thoại")
	assert.Contains(t, out, "Broad types:")

	out, err = run(t, "", "rules", "-f", "json")
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "rules")
	assert.Contains(t, decoded, "broad_types")
}

func TestBatchCommand(t *testing.T) {
	input := writeFile(t, "docs.csv", "id,text\na,Mật khẩu: abc123\nb,Hôm nay trời đẹp\n")
	output := filepath.Join(t.TempDir(), "out.csv")

	_, err := run(t, "", "batch", input, "-o", output, "-f", "csv", "-w", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "a,"))
	assert.True(t, strings.HasPrefix(lines[2], "b,"))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "docscan"`)
}
