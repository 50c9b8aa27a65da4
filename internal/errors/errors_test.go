package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineErrorMessage(t *testing.T) {
	err := UnmatchedMarker("popup.html", 12, "endbuild")
	assert.Equal(t, "config: unmatched build marker [file=popup.html line=12 marker=endbuild]", err.Error())

	wrapped := MinifyFailed("scripts/popup.js", fmt.Errorf("unexpected token"))
	assert.Equal(t, "transform: minification failed [target=scripts/popup.js]: unexpected token", wrapped.Error())
}

func TestUnwrapReachesCause(t *testing.T) {
	err := ResetFailed("dist", fs.ErrPermission)
	assert.True(t, stderrors.Is(err, fs.ErrPermission))
}

func TestCategoryHelpers(t *testing.T) {
	inner := VersionInvalid("1.x")
	outer := fmt.Errorf("release: %w", PackagingFailed("name artifact", inner))

	assert.True(t, IsCategory(outer, CategoryPackaging))
	assert.True(t, IsCategory(outer, CategoryConfig))
	assert.False(t, IsCategory(outer, CategoryValidation))
	assert.Equal(t, CategoryPackaging, GetCategory(outer))
	assert.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))

	pe, ok := As(outer)
	require.True(t, ok)
	assert.Equal(t, "packaging failed", pe.Message)
}
