package recommend

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/your-org/internmatch/internal/catalog"
	"github.com/your-org/internmatch/internal/classify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var sectorSkills = map[string][]string{
	"IT":        {"Python", "SQL", "Cloud", "Java", "Linux", "Docker"},
	"Marketing": {"SEO", "Branding", "Copywriting", "Campaigns", "Social Media", "Analytics"},
	"Finance":   {"Accounting", "Excel", "Audit", "Taxation", "Banking", "Ledger"},
}

var cities = []string{"Pune", "Mumbai", "Delhi"}

// catalogCSV renders perSector rows per sector, extra rows appended.
func catalogCSV(perSector int, extra ...string) string {
	var b strings.Builder
	b.WriteString("title,company,sector,required_skills,education_required,location,duration,stipend\n")
	for _, sector := range []string{"Finance", "IT", "Marketing"} {
		skills := sectorSkills[sector]
		for i := 0; i < perSector; i++ {
			fmt.Fprintf(&b, "%s Intern %d,Co %d,%s,\"['%s', '%s']\",College,%s,3,10000\n",
				sector, i, i, sector, skills[i%6], skills[(i+2)%6], cities[i%3])
		}
	}
	for _, row := range extra {
		b.WriteString(row + "\n")
	}
	return b.String()
}

func writeFixtures(t *testing.T, dir string, perSector int) Source {
	t.Helper()
	src := Source{
		ModelPath:   filepath.Join(dir, "internshipmodel.json"),
		CatalogPath: filepath.Join(dir, "internships.csv"),
		BatchSize:   DefaultBatchSize,
	}
	require.NoError(t, os.WriteFile(src.CatalogPath, []byte(catalogCSV(perSector)), 0644))
	cat, err := catalog.Load(src.CatalogPath)
	require.NoError(t, err)
	require.NoError(t, trainBundle(t, cat).Save(src.ModelPath))
	return src
}

func trainBundle(t *testing.T, cat *catalog.Catalog) *classify.Bundle {
	t.Helper()
	docs, labels := cat.Documents()
	bundle, _, err := classify.TrainBest(context.Background(), docs, labels, classify.Options{
		TestSize:   0.2,
		Seed:       42,
		Candidates: []classify.Classifier{classify.NewLogisticRegression()},
	})
	require.NoError(t, err)
	return bundle
}

func fixtureRecommender(t *testing.T, perSector int, opts ...Option) *Recommender {
	t.Helper()
	items, err := catalog.Read(strings.NewReader(catalogCSV(perSector)))
	require.NoError(t, err)
	cat := catalog.New(items)
	return New(trainBundle(t, cat), cat, opts...)
}

func TestPreferences_Text(t *testing.T) {
	p := Preferences{Education: "College", Skills: "Python, SQL", Sector: "IT", Location: "Pune"}
	assert.Equal(t, "IT Python, SQL College Pune", p.Text())
}

func TestRecommend(t *testing.T) {
	r := fixtureRecommender(t, 8, WithRand(rand.New(rand.NewPCG(1, 2))))
	require.True(t, r.Available())

	res, err := r.Recommend(context.Background(), Preferences{Skills: "Python SQL Docker", Sector: "IT", Education: "College", Location: "Pune"})
	require.NoError(t, err)
	assert.Equal(t, "IT", res.PredictedSector)
	require.Len(t, res.Items, DefaultBatchSize)

	seen := map[string]bool{}
	for _, it := range res.Items {
		assert.Equal(t, "IT", it.Sector)
		assert.False(t, seen[it.ID], "no duplicates in a batch")
		seen[it.ID] = true
	}
}

func TestRecommend_ShuffleIsSeeded(t *testing.T) {
	prefs := Preferences{Skills: "SEO Branding", Sector: "Marketing"}
	a := fixtureRecommender(t, 8, WithRand(rand.New(rand.NewPCG(7, 7))))
	b := fixtureRecommender(t, 8, WithRand(rand.New(rand.NewPCG(7, 7))))

	ra, err := a.Recommend(context.Background(), prefs)
	require.NoError(t, err)
	rb, err := b.Recommend(context.Background(), prefs)
	require.NoError(t, err)
	assert.Equal(t, ra.Items, rb.Items)
}

func TestRecommendN(t *testing.T) {
	r := fixtureRecommender(t, 8, WithBatchSize(3))
	prefs := Preferences{Skills: "Audit Excel Ledger", Sector: "Finance"}

	res, err := r.Recommend(context.Background(), prefs)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)

	res, err = r.RecommendN(context.Background(), prefs, 100)
	require.NoError(t, err)
	assert.Len(t, res.Items, 8, "capped by the sector size")
}

func TestRecommend_Unavailable(t *testing.T) {
	ctx := context.Background()
	var nilRec *Recommender
	_, err := nilRec.Recommend(ctx, Preferences{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(nil, catalog.New(nil)).Recommend(ctx, Preferences{})
	assert.ErrorIs(t, err, ErrUnavailable)

	r := fixtureRecommender(t, 4)
	_, err = New(r.Bundle(), nil).Recommend(ctx, Preferences{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecommend_Cancelled(t *testing.T) {
	r := fixtureRecommender(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Recommend(ctx, Preferences{Sector: "IT"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Load(t *testing.T) {
	dir := t.TempDir()
	src := writeFixtures(t, dir, 6)

	r, err := src.Load()
	require.NoError(t, err)
	assert.True(t, r.Available())
	assert.Equal(t, 18, r.Catalog().Len())
	assert.Equal(t, "logistic_regression", r.Bundle().Kind)
	assert.WithinDuration(t, time.Now(), r.LoadedAt(), time.Minute)
}

func TestSource_LoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	r, err := Source{
		ModelPath:   filepath.Join(dir, "nope.json"),
		CatalogPath: filepath.Join(dir, "nope.csv"),
	}.Load()
	require.NoError(t, err)
	assert.False(t, r.Available())
	assert.Nil(t, r.Bundle())
	assert.Zero(t, r.Catalog().Len())
}

func TestSource_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	src := writeFixtures(t, dir, 4)
	require.NoError(t, os.WriteFile(src.ModelPath, []byte("{broken"), 0644))
	_, err := src.Load()
	assert.ErrorContains(t, err, "load model")
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil)
	assert.Nil(t, h.Load())
	assert.False(t, h.Load().Available())

	r := New(nil, nil)
	h.Store(r)
	assert.Same(t, r, h.Load())
}
