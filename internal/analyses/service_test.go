package analyses

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"doclex-backend/internal/configs"
	"doclex-backend/internal/languages"
	"doclex-backend/internal/stages"
)

func setupService(t *testing.T) (*Service, *MemoryGateway) {
	t.Helper()
	reg, err := languages.NewRegistry(languages.Options{}, languages.Builtin()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	store, err := configs.Seed(configs.Default())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	gw := NewMemoryGateway()
	svc := &Service{
		Languages: reg,
		Configs:   store,
		Stages:    stages.DefaultRegistry(),
		Gateway:   gw,
	}
	return svc, gw
}

func seedConfig(t *testing.T, svc *Service, cfg configs.Configuration) {
	t.Helper()
	store := svc.Configs.(*configs.MemoryStore)
	if err := store.Put(context.Background(), cfg); err != nil {
		t.Fatalf("Put config: %v", err)
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	svc, gw := setupService(t)
	seedConfig(t, svc, configs.Configuration{
		ID:      "tok-freq",
		Version: 1,
		Stages: []configs.StageSetting{
			{Name: stages.StageTokenization, Enabled: true},
			{Name: stages.StageFrequency, Enabled: true},
		},
	})

	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
		ConfigID:     "tok-freq",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Analysis == nil {
		t.Fatalf("expected analysis")
	}
	if res.Analysis.Status != StatusSucceeded {
		t.Fatalf("status = %s", res.Analysis.Status)
	}
	if res.Analysis.ConfigID != "tok-freq" || res.Analysis.ConfigVersion != 1 {
		t.Fatalf("config reference = %s v%d", res.Analysis.ConfigID, res.Analysis.ConfigVersion)
	}
	if res.Analysis.LanguageCode != "en" {
		t.Fatalf("language = %s", res.Analysis.LanguageCode)
	}

	freq := res.Analysis.Metrics[stages.StageFrequency]
	if freq["token_count"] != float64(4) {
		t.Fatalf("token_count = %v", freq["token_count"])
	}
	if freq["type_count"] != float64(4) {
		t.Fatalf("type_count = %v", freq["type_count"])
	}

	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(res.Entries))
	}
	for _, e := range res.Entries {
		if e.Outcome != OutcomeOk {
			t.Fatalf("entry %s outcome = %s", e.Stage, e.Outcome)
		}
	}
	if res.CommitID == "" {
		t.Fatalf("missing commit id")
	}

	// One document, one analysis, two entries committed.
	docs, analyses, entries := gw.Counts()
	if docs != 1 || analyses != 1 || entries != 2 {
		t.Fatalf("stored docs=%d analyses=%d entries=%d", docs, analyses, entries)
	}
}

func TestAnalyzeEmptyInputPersistsNothing(t *testing.T) {
	svc, gw := setupService(t)

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{Text: ""})
	if !errors.Is(err, stages.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	docs, analyses, entries := gw.Counts()
	if docs+analyses+entries != 0 {
		t.Fatalf("expected no records, got docs=%d analyses=%d entries=%d", docs, analyses, entries)
	}
}

func TestAnalyzeOversizedInput(t *testing.T) {
	svc, gw := setupService(t)
	svc.MaxDocumentBytes = 8

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{Text: "this is definitely too long"})
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
	if docs, _, _ := gw.Counts(); docs != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestAnalyzeLanguageResolutionFailure(t *testing.T) {
	svc, gw := setupService(t)

	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "zzzz qqele wvrk xpto mlk jhgf",
		LanguageHint: "xx",
	})
	if !errors.Is(err, ErrLanguageResolution) {
		t.Fatalf("expected ErrLanguageResolution, got %v", err)
	}
	if res.Analysis != nil {
		t.Fatalf("no analysis should exist without a resolved language")
	}
	if len(res.Entries) != 1 || res.Entries[0].Stage != StageLanguageResolution || res.Entries[0].Outcome != OutcomeFailed {
		t.Fatalf("unexpected entries: %+v", res.Entries)
	}
	if res.CommitID == "" {
		t.Fatalf("expected the failure to be committed for the audit trail")
	}

	docs, analyses, entries := gw.Counts()
	if docs != 1 || analyses != 0 || entries != 1 {
		t.Fatalf("stored docs=%d analyses=%d entries=%d", docs, analyses, entries)
	}
}

func TestAnalyzeConfigurationUnavailable(t *testing.T) {
	svc, gw := setupService(t)

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
		ConfigID:     "ghost",
	})
	if !errors.Is(err, ErrConfigurationUnavailable) {
		t.Fatalf("expected ErrConfigurationUnavailable, got %v", err)
	}
	if docs, _, _ := gw.Counts(); docs != 0 {
		t.Fatalf("config failure must abort before persistence")
	}
}

func TestAnalyzeNoActiveConfiguration(t *testing.T) {
	svc, _ := setupService(t)
	svc.Configs = configs.NewMemoryStore()

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
	})
	if !errors.Is(err, ErrConfigurationUnavailable) {
		t.Fatalf("expected ErrConfigurationUnavailable, got %v", err)
	}
}

func TestAnalyzeUsesActiveConfiguration(t *testing.T) {
	svc, _ := setupService(t)

	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox jumps over the lazy dog",
		LanguageHint: "en",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Analysis.ConfigID != "default" {
		t.Fatalf("config id = %s", res.Analysis.ConfigID)
	}
	if len(res.Entries) != 4 {
		t.Fatalf("entries = %d, want one per declared stage", len(res.Entries))
	}
}

func TestAnalyzeDisabledStageLoggedSkipped(t *testing.T) {
	svc, _ := setupService(t)
	seedConfig(t, svc, configs.Configuration{
		ID:      "partial",
		Version: 1,
		Stages: []configs.StageSetting{
			{Name: stages.StageTokenization, Enabled: true},
			{Name: stages.StageFrequency, Enabled: false},
			{Name: stages.StageComplexity, Enabled: true},
		},
	})

	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
		ConfigID:     "partial",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Analysis.Status != StatusSucceeded {
		t.Fatalf("status = %s", res.Analysis.Status)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("entries = %d", len(res.Entries))
	}
	if res.Entries[1].Outcome != OutcomeSkipped {
		t.Fatalf("disabled stage outcome = %s", res.Entries[1].Outcome)
	}
	if _, ok := res.Analysis.Metrics[stages.StageFrequency]; ok {
		t.Fatalf("disabled stage must not contribute metrics")
	}
}

func TestAnalyzeTokenizationFailureSkipsDependents(t *testing.T) {
	svc, gw := setupService(t)

	// Punctuation-only text survives the input check but tokenizes to nothing.
	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "!!! ??? ...",
		LanguageHint: "en",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Analysis.Status != StatusFailed {
		t.Fatalf("status = %s", res.Analysis.Status)
	}
	if len(res.Analysis.Metrics) != 0 {
		t.Fatalf("expected empty metrics, got %v", res.Analysis.Metrics)
	}
	if len(res.Entries) != 4 {
		t.Fatalf("entries = %d", len(res.Entries))
	}
	if res.Entries[0].Stage != stages.StageTokenization || res.Entries[0].Outcome != OutcomeFailed {
		t.Fatalf("tokenization entry = %+v", res.Entries[0])
	}
	for _, e := range res.Entries[1:] {
		if e.Outcome != OutcomeSkipped {
			t.Fatalf("dependent stage %s outcome = %s, want skipped", e.Stage, e.Outcome)
		}
	}

	// The failed analysis is still persisted.
	docs, analyses, entries := gw.Counts()
	if docs != 1 || analyses != 1 || entries != 4 {
		t.Fatalf("stored docs=%d analyses=%d entries=%d", docs, analyses, entries)
	}
}

func TestAnalyzeUnknownStagePartiallyFails(t *testing.T) {
	svc, _ := setupService(t)
	seedConfig(t, svc, configs.Configuration{
		ID:      "with-unknown",
		Version: 1,
		Stages: []configs.StageSetting{
			{Name: stages.StageTokenization, Enabled: true},
			{Name: "made-up-stage", Enabled: true},
		},
	})

	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
		ConfigID:     "with-unknown",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Analysis.Status != StatusPartiallyFailed {
		t.Fatalf("status = %s", res.Analysis.Status)
	}
	if res.Entries[1].Outcome != OutcomeFailed {
		t.Fatalf("unknown stage outcome = %s", res.Entries[1].Outcome)
	}
}

func TestAnalyzeEntryOrderFollowsConfiguration(t *testing.T) {
	svc, _ := setupService(t)
	seedConfig(t, svc, configs.Configuration{
		ID:      "ordered",
		Version: 1,
		Stages: []configs.StageSetting{
			{Name: stages.StageTokenization, Enabled: true},
			{Name: stages.StageRuleFlags, Enabled: true},
			{Name: stages.StageComplexity, Enabled: false},
			{Name: stages.StageFrequency, Enabled: true},
		},
	})

	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
		ConfigID:     "ordered",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var order []string
	for _, e := range res.Entries {
		order = append(order, e.Stage)
	}
	want := []string{stages.StageTokenization, stages.StageRuleFlags, stages.StageComplexity, stages.StageFrequency}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("entry order = %v, want %v", order, want)
	}
}

func TestAnalyzeAtomicityOnCommitFailure(t *testing.T) {
	svc, gw := setupService(t)
	gw.FailNextCommit(ErrConflict)

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	docs, analyses, entries := gw.Counts()
	if docs+analyses+entries != 0 {
		t.Fatalf("commit failure must leave storage empty, got docs=%d analyses=%d entries=%d", docs, analyses, entries)
	}
}

type countingGateway struct {
	inner    Gateway
	failures int
	calls    int
	batches  []Batch
}

func (g *countingGateway) Commit(ctx context.Context, batch Batch) (string, error) {
	g.calls++
	g.batches = append(g.batches, batch)
	if g.calls <= g.failures {
		return "", ErrUnavailable
	}
	return g.inner.Commit(ctx, batch)
}

func TestAnalyzeRetriesUnavailableWithSameBatch(t *testing.T) {
	svc, gw := setupService(t)
	counting := &countingGateway{inner: gw, failures: 2}
	svc.Gateway = counting
	svc.CommitAttempts = 3

	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if counting.calls != 3 {
		t.Fatalf("calls = %d, want 3", counting.calls)
	}
	// The retried batches are the very same records, not recomputed ones.
	first, last := counting.batches[0], counting.batches[2]
	if first.Analysis.ID != last.Analysis.ID || first.Document.ID != last.Document.ID {
		t.Fatalf("retry recomputed the batch")
	}
	if res.Analysis.Status != StatusSucceeded {
		t.Fatalf("status = %s", res.Analysis.Status)
	}
}

func TestAnalyzeGivesUpAfterBoundedRetries(t *testing.T) {
	svc, gw := setupService(t)
	counting := &countingGateway{inner: gw, failures: 10}
	svc.Gateway = counting
	svc.CommitAttempts = 2

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Text:         "the quick brown fox",
		LanguageHint: "en",
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if counting.calls != 2 {
		t.Fatalf("calls = %d, want 2", counting.calls)
	}
}

func TestAnalyzeReproducibleMetrics(t *testing.T) {
	svc, gw := setupService(t)
	seedConfig(t, svc, configs.Configuration{
		ID:      "pinned",
		Version: 1,
		Stages: []configs.StageSetting{
			{Name: stages.StageTokenization, Enabled: true},
			{Name: stages.StageFrequency, Enabled: true, Params: map[string]any{"top_terms": float64(3)}},
			{Name: stages.StageComplexity, Enabled: true},
		},
	})

	req := AnalyzeRequest{
		Text:         "the quick brown fox jumps over the lazy dog. the fox sleeps.",
		LanguageHint: "en",
		ConfigID:     "pinned",
	}
	first, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	second, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if !reflect.DeepEqual(first.Analysis.Metrics, second.Analysis.Metrics) {
		t.Fatalf("metrics differ between identical runs:\n%v\n%v", first.Analysis.Metrics, second.Analysis.Metrics)
	}
	if docs, _, _ := gw.Counts(); docs != 2 {
		t.Fatalf("each run owns its document, got %d", docs)
	}
}

func TestAnalyzeBytesPlainText(t *testing.T) {
	svc, _ := setupService(t)

	res, err := svc.AnalyzeBytes(context.Background(), []byte("the quick brown fox"), "text/plain", "doc.txt", AnalyzeRequest{
		LanguageHint: "en",
	})
	if err != nil {
		t.Fatalf("AnalyzeBytes: %v", err)
	}
	if res.Analysis.Status != StatusSucceeded {
		t.Fatalf("status = %s", res.Analysis.Status)
	}
}

func TestAnalyzeBytesUnsupported(t *testing.T) {
	svc, gw := setupService(t)

	_, err := svc.AnalyzeBytes(context.Background(), []byte{0x00, 0x01, 0xff}, "application/octet-stream", "blob.bin", AnalyzeRequest{})
	if err == nil {
		t.Fatalf("expected extraction error")
	}
	if docs, _, _ := gw.Counts(); docs != 0 {
		t.Fatalf("failed extraction must persist nothing")
	}
}

func TestCodeFor(t *testing.T) {
	cases := map[string]error{
		ErrorCodeInput:         ErrDocumentTooLarge,
		ErrorCodeLanguage:      ErrLanguageResolution,
		ErrorCodeConfiguration: ErrConfigurationUnavailable,
		ErrorCodeStorage:       ErrConflict,
		ErrorCodeInternal:      errors.New("boom"),
	}
	for want, err := range cases {
		if got := CodeFor(err); got != want {
			t.Errorf("CodeFor(%v) = %s, want %s", err, got, want)
		}
	}
	if CodeFor(nil) != "" {
		t.Errorf("CodeFor(nil) should be empty")
	}
}
