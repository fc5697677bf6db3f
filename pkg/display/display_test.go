package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotur/pkg/order"
)

func TestEveryStatusHasAttributes(t *testing.T) {
	all := All()
	require.Len(t, all, len(order.Statuses))
	for i, s := range order.Statuses {
		assert.Equal(t, s, all[i].Status)
		assert.NotEmpty(t, all[i].Label)
		assert.NotEqual(t, "gray", all[i].Color)
	}
}

func TestForStatus(t *testing.T) {
	a := ForStatus(order.StatusOnTheWay)
	assert.Equal(t, "Yolda", a.Label)
	assert.Equal(t, "blue", a.Color)
	assert.Equal(t, "bicycle", a.Icon)

	unknown := ForStatus(order.Status("lost"))
	assert.Equal(t, "lost", unknown.Label)
	assert.Equal(t, "gray", unknown.Color)
}
