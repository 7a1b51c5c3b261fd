package repository

import (
	"context"
	"testing"

	"photoshare/internal/models"
	"photoshare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository_Resolve(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Simple", "cat,dog", []string{"cat", "dog"}},
		{"Trims And Lowercases", "  Cat , DOG ", []string{"cat", "dog"}},
		{"Skips Empty Tokens", "cat,,dog,", []string{"cat", "dog"}},
		{"Dedupes Within One Call", "Cat, cat, Dog", []string{"cat", "dog"}},
		{"Caps At Five", "a,b,c,d,e,f,g", []string{"a", "b", "c", "d", "e"}},
		{"Empty Input", "", nil},
		{"Only Commas", ",,,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags, err := repo.Resolve(ctx, tt.input)
			require.NoError(t, err)

			texts := make([]string, 0, len(tags))
			for _, tag := range tags {
				texts = append(texts, tag.Text)
			}
			if tt.expected == nil {
				assert.Empty(t, texts)
			} else {
				assert.Equal(t, tt.expected, texts)
			}
		})
	}
}

func TestTagRepository_ResolveReturnsSameIdentity(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	first, err := repo.Resolve(ctx, "sunset")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := repo.Resolve(ctx, "Sunset")
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)

	var count int64
	db.Model(&models.Tag{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestTagRepository_GetByText(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "  Nature ")
	require.NoError(t, err)
	assert.Equal(t, "nature", created.Text)

	found, err := repo.GetByText(ctx, "NATURE")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByText(ctx, "missing")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestTagRepository_CreateEmptyText(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewTagRepository(db)

	_, err := repo.Create(context.Background(), "   ")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}
