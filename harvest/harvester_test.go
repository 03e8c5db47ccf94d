package harvest

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easypatent/patentscout/core"
	"github.com/easypatent/patentscout/epo"
	"github.com/easypatent/patentscout/pipeline"
	"github.com/easypatent/patentscout/ratelimit"
	"github.com/easypatent/patentscout/storage"
	"github.com/easypatent/patentscout/storage/badger"
)

// fakeSource is a scripted PatentSource.
type fakeSource struct {
	mu        sync.Mutex
	matches   map[string][]core.PublicationRef
	abstracts map[string]string

	searchErr   map[string]error
	abstractErr map[string]error

	searchKeys []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		matches:     make(map[string][]core.PublicationRef),
		abstracts:   make(map[string]string),
		searchErr:   make(map[string]error),
		abstractErr: make(map[string]error),
	}
}

func (f *fakeSource) addMatch(keyword string, ref core.PublicationRef, abstract string) {
	f.matches[keyword] = append(f.matches[keyword], ref)
	f.abstracts[ref.PatentNumber()] = abstract
}

func (f *fakeSource) Search(ctx context.Context, keyword string) ([]core.PublicationRef, error) {
	f.mu.Lock()
	f.searchKeys = append(f.searchKeys, ratelimit.KeyFromContext(ctx))
	f.mu.Unlock()

	if err := f.searchErr[keyword]; err != nil {
		return nil, err
	}
	return f.matches[keyword], nil
}

func (f *fakeSource) FetchAbstract(ctx context.Context, ref core.PublicationRef) (string, error) {
	if err := f.abstractErr[ref.PatentNumber()]; err != nil {
		return "", err
	}
	return f.abstracts[ref.PatentNumber()], nil
}

func newTestRepository(t *testing.T) storage.PatentRepository {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func epRef(docNumber string) core.PublicationRef {
	return core.PublicationRef{Country: "EP", DocNumber: docNumber, Kind: "A1", IDType: "docdb"}
}

func TestHarvester_StoresAllMatches(t *testing.T) {
	source := newFakeSource()
	source.addMatch("battery", epRef("1000000"), "A rechargeable battery assembly.")
	source.addMatch("battery", core.PublicationRef{Country: "US", DocNumber: "9876543", Kind: "B2", IDType: "docdb"},
		"An electrode coating process.")

	repo := newTestRepository(t)
	harvester, err := NewHarvester(source, repo)
	require.NoError(t, err)

	report, err := harvester.Run(context.Background(), []string{"battery"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Submitted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)

	count, err := repo.CountPatents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	record, err := repo.GetPatent(context.Background(), "EP1000000A1")
	require.NoError(t, err)
	assert.Equal(t, "A rechargeable battery assembly.", record.Abstract)
	assert.Equal(t, "battery", record.Keyword)
}

func TestHarvester_SearchFailureFailsKeyword(t *testing.T) {
	source := newFakeSource()
	source.searchErr["battery"] = epo.ErrNetwork

	repo := newTestRepository(t)
	harvester, err := NewHarvester(source, repo)
	require.NoError(t, err)

	report, err := harvester.Run(context.Background(), []string{"battery"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, epo.ErrNetwork)

	count, err := repo.CountPatents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestHarvester_AbstractFailureDegradesToSentinel(t *testing.T) {
	source := newFakeSource()
	source.addMatch("battery", epRef("1000000"), "A rechargeable battery assembly.")
	source.addMatch("battery", epRef("2000000"), "unused")
	source.abstractErr["EP2000000A1"] = errors.New("timeout")

	repo := newTestRepository(t)
	harvester, err := NewHarvester(source, repo)
	require.NoError(t, err)

	report, err := harvester.Run(context.Background(), []string{"battery"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	degraded, err := repo.GetPatent(context.Background(), "EP2000000A1")
	require.NoError(t, err)
	assert.Equal(t, core.AbstractFetchFailed, degraded.Abstract)

	healthy, err := repo.GetPatent(context.Background(), "EP1000000A1")
	require.NoError(t, err)
	assert.Equal(t, "A rechargeable battery assembly.", healthy.Abstract)
}

func TestHarvester_FailedKeywordDoesNotAffectSiblings(t *testing.T) {
	source := newFakeSource()
	source.addMatch("battery", epRef("1000000"), "A rechargeable battery assembly.")
	source.searchErr["solar"] = epo.ErrNetwork

	repo := newTestRepository(t)
	harvester, err := NewHarvester(source, repo, WithConcurrency(2))
	require.NoError(t, err)

	report, err := harvester.Run(context.Background(), []string{"battery", "solar"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Submitted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"solar"}, report.FailedIDs())

	count, err := repo.CountPatents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHarvester_NoMatchesSucceeds(t *testing.T) {
	source := newFakeSource()
	repo := newTestRepository(t)
	harvester, err := NewHarvester(source, repo)
	require.NoError(t, err)

	report, err := harvester.Run(context.Background(), []string{"unobtainium"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
}

func TestHarvester_SetsRateLimitKeyPerKeyword(t *testing.T) {
	source := newFakeSource()
	source.addMatch("battery", epRef("1000000"), "A rechargeable battery assembly.")
	source.addMatch("solar", epRef("3000000"), "A photovoltaic cell arrangement.")

	repo := newTestRepository(t)
	harvester, err := NewHarvester(source, repo, WithConcurrency(2))
	require.NoError(t, err)

	_, err = harvester.Run(context.Background(), []string{"battery", "solar"})
	require.NoError(t, err)

	keys := make(map[string]bool)
	for _, key := range source.searchKeys {
		keys[key] = true
	}
	assert.True(t, keys["battery"])
	assert.True(t, keys["solar"])
}

func TestHarvester_RerunIsIdempotent(t *testing.T) {
	source := newFakeSource()
	source.addMatch("battery", epRef("1000000"), "A rechargeable battery assembly.")

	repo := newTestRepository(t)
	harvester, err := NewHarvester(source, repo)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = harvester.Run(context.Background(), []string{"battery"})
		require.NoError(t, err)
	}

	count, err := repo.CountPatents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHarvester_ReportsProgress(t *testing.T) {
	source := newFakeSource()
	source.addMatch("battery", epRef("1000000"), "A rechargeable battery assembly.")
	source.addMatch("solar", epRef("3000000"), "A photovoltaic cell arrangement.")

	var buf bytes.Buffer
	progress := pipeline.NewProgressTracker(&buf, 0, 1)

	repo := newTestRepository(t)
	harvester, err := NewHarvester(source, repo, WithProgress(progress))
	require.NoError(t, err)

	_, err = harvester.Run(context.Background(), []string{"battery", "solar"})
	require.NoError(t, err)

	assert.Equal(t, 2, progress.Current())
	assert.Contains(t, buf.String(), "2/2")
}

func TestNewHarvester_RequiresCollaborators(t *testing.T) {
	repo := newTestRepository(t)

	_, err := NewHarvester(nil, repo)
	assert.Error(t, err)

	_, err = NewHarvester(newFakeSource(), nil)
	assert.Error(t, err)
}
