package services

import (
	"errors"
	"testing"

	"github.com/terraincognita07/ifla/internal/models"
)

func stringPtr(value string) *string { return &value }

func boolPtr(value bool) *bool { return &value }

func int64Ptr(value int64) *int64 { return &value }

func TestCatalogLanguageLifecycle(t *testing.T) {
	fixture := newWorkflowFixture(t)

	created, err := fixture.catalog.CreateLanguage(LanguageInput{
		Name:     stringPtr(" Korean "),
		Code:     stringPtr("KO"),
		Category: stringPtr(models.CategoryAsian),
	})
	if err != nil {
		t.Fatalf("CreateLanguage() unexpected error: %v", err)
	}
	if created.Name != "Korean" || created.Code != "ko" || !created.IsActive {
		t.Fatalf("unexpected language %#v", created)
	}

	if _, err := fixture.catalog.CreateLanguage(LanguageInput{Name: stringPtr("Korean"), Code: stringPtr("ko")}); !errors.Is(err, ErrLanguageExists) {
		t.Fatalf("expected ErrLanguageExists, got %v", err)
	}
	if _, err := fixture.catalog.CreateLanguage(LanguageInput{Name: stringPtr("Thai"), Code: stringPtr("th"), Category: stringPtr("oceanic")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown category, got %v", err)
	}

	updated, err := fixture.catalog.UpdateLanguage(created.ID, LanguageInput{IsActive: boolPtr(false)})
	if err != nil {
		t.Fatalf("UpdateLanguage() unexpected error: %v", err)
	}
	if updated.IsActive || updated.Name != "Korean" {
		t.Fatalf("expected only activity to change, got %#v", updated)
	}

	active, err := fixture.catalog.ListLanguages(true)
	if err != nil {
		t.Fatalf("ListLanguages() unexpected error: %v", err)
	}
	for _, language := range active {
		if language.ID == created.ID {
			t.Fatalf("inactive language listed among active ones")
		}
	}

	if err := fixture.catalog.DeleteLanguage(created.ID); err != nil {
		t.Fatalf("DeleteLanguage() unexpected error: %v", err)
	}
	if _, err := fixture.catalog.GetLanguage(created.ID); !errors.Is(err, ErrLanguageNotFound) {
		t.Fatalf("expected ErrLanguageNotFound, got %v", err)
	}
}

func TestCatalogLevelRules(t *testing.T) {
	fixture := newWorkflowFixture(t)

	level, err := fixture.catalog.CreateLevel(fixture.japanese.ID, LevelInput{Level: stringPtr("b2"), Price: int64Ptr(22000)})
	if err != nil {
		t.Fatalf("CreateLevel() unexpected error: %v", err)
	}
	if level.Level != models.LevelB2 || level.DurationWeeks != 12 {
		t.Fatalf("unexpected level %#v", level)
	}

	type testCase struct {
		name  string
		input LevelInput
		want  error
	}
	tests := []testCase{
		{name: "duplicate", input: LevelInput{Level: stringPtr("A1"), Price: int64Ptr(1)}, want: ErrLevelExists},
		{name: "unknown code", input: LevelInput{Level: stringPtr("D1")}, want: ErrValidation},
		{name: "negative price", input: LevelInput{Level: stringPtr("C1"), Price: int64Ptr(-1)}, want: ErrValidation},
		{name: "missing code", input: LevelInput{Price: int64Ptr(100)}, want: ErrValidation},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := fixture.catalog.CreateLevel(fixture.japanese.ID, testCase.input); !errors.Is(err, testCase.want) {
				t.Fatalf("expected %v, got %v", testCase.want, err)
			}
		})
	}

	if _, err := fixture.catalog.CreateLevel(424242, LevelInput{Level: stringPtr("A1")}); !errors.Is(err, ErrLanguageNotFound) {
		t.Fatalf("expected ErrLanguageNotFound, got %v", err)
	}
}

func TestResolveLevels(t *testing.T) {
	fixture := newWorkflowFixture(t)
	a1 := fixture.levels[models.LevelA1].ID
	a2 := fixture.levels[models.LevelA2].ID

	levels, err := fixture.catalog.ResolveLevels(fixture.japanese.ID, []uint{a1, a2, a1})
	if err != nil {
		t.Fatalf("ResolveLevels() unexpected error: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected duplicates removed, got %d levels", len(levels))
	}

	if _, err := fixture.catalog.UpdateLevel(a2, LevelInput{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("deactivate level: %v", err)
	}
	if _, err := fixture.catalog.ResolveLevels(fixture.japanese.ID, []uint{a1, a2}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected inactive level to be rejected, got %v", err)
	}
	if _, err := fixture.catalog.ResolveLevels(fixture.japanese.ID, []uint{a1, 999}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected missing level to be rejected, got %v", err)
	}
	if _, err := fixture.catalog.ResolveLevels(fixture.japanese.ID, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected empty selection to be rejected, got %v", err)
	}
}
