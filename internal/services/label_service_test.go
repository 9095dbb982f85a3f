package services_test

import (
	"bytes"
	"testing"

	"garage/internal/models"
	"garage/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLabelService_Render(t *testing.T) {
	log := zap.NewNop().Sugar()
	labels := services.NewLabelService(services.NewQRService(nil, log), log)

	boxes := make([]models.Box, 0, 12)
	for i := 1; i <= 12; i++ {
		boxes = append(boxes, models.Box{ID: uint(i), Name: "Box", Location: "Garage – shelf"})
	}

	pdf, err := labels.Render(boxes)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	// Twelve labels at ten per page span two pages.
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	assert.Equal(t, 2, pages)

	empty, err := labels.Render(nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))
}
