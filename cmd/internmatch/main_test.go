package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/internmatch/internal/classify"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		trainCatalog, trainOutput, trainQuiet = "", "", false
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeWorkspace(t *testing.T) (dir, configFile string) {
	t.Helper()
	dir = t.TempDir()

	skills := map[string][]string{
		"IT":        {"Python", "SQL", "Docker", "Linux"},
		"Marketing": {"SEO", "Branding", "Copywriting", "Analytics"},
		"Finance":   {"Excel", "Accounting", "Tally", "Auditing"},
	}
	var b strings.Builder
	b.WriteString("title,company,sector,required_skills,education_required,location,duration,stipend\n")
	for _, sector := range []string{"IT", "Marketing", "Finance"} {
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&b, "%s Intern %d,Co %d,%s,\"['%s', '%s']\",College,Pune,3,10000\n",
				sector, i, i, sector, skills[sector][i%4], skills[sector][(i+1)%4])
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "internships.csv"), []byte(b.String()), 0644))

	configFile = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("base_dir: "+dir+"\nlogging:\n  level: error\n"), 0644))
	return dir, configFile
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "internmatch dev\n", out)
}

func TestTrainCommand(t *testing.T) {
	dir, configFile := writeWorkspace(t)

	out, err := execute(t, "train", "--config", configFile, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "MODEL")
	assert.Contains(t, out, "Logistic Regression")
	assert.Contains(t, out, "Best model:")

	bundle, err := classify.LoadBundle(filepath.Join(dir, "internshipmodel.json"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Finance", "IT", "Marketing"}, bundle.Classes)
}

func TestTrainCommand_MissingCatalog(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("base_dir: "+dir+"\n"), 0644))

	_, err := execute(t, "train", "--config", configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPrintComparison(t *testing.T) {
	var buf bytes.Buffer
	printComparison(&buf, []classify.Result{
		{Name: "Logistic Regression", Accuracy: 0.9},
		{Name: "SVM", Err: assert.AnError},
	})
	assert.Contains(t, buf.String(), "0.9000")
	assert.Contains(t, buf.String(), "failed")
}
