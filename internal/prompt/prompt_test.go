package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restage-service/internal/domain"
)

func TestBuildDeterministic(t *testing.T) {
	opts := domain.RestageOptions{
		TransformationMode: domain.ModeFurnish,
		Repaint:            true,
		PaintColor:         "warm white",
		BlockDecorative:    true,
	}

	first, err := Build("living_room", domain.StyleModern, opts)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Build("living_room", domain.StyleModern, opts)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildFurnishLivingRoomModern(t *testing.T) {
	out, err := Build("living_room", domain.StyleModern, domain.RestageOptions{
		TransformationMode: domain.ModeFurnish,
		BlockDecorative:    true,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Professionally stage this living room with furniture and decor in modern style.")
	assert.Contains(t, out, "Do not add decorative items such as plants, vases, or animals.")
	assert.NotContains(t, out, "living_room")
}

func TestBuildFlooringRule(t *testing.T) {
	tests := []struct {
		mode     domain.TransformationMode
		wantRule bool
	}{
		{domain.ModeFurnish, true},
		{domain.ModeRedesign, true},
		{domain.ModeRenovate, true},
		{domain.ModeOutdoor, true},
		{domain.ModeBlueSky, true},
		{domain.ModeEmpty, false},
		{domain.ModeEnhance, false},
		{domain.ModeDayToDusk, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.mode), func(t *testing.T) {
			out, err := Build("bedroom", domain.StyleScandinavian, domain.RestageOptions{
				TransformationMode: tc.mode,
				ChangeFlooring:     false,
			})
			require.NoError(t, err)

			if tc.wantRule {
				assert.Contains(t, out, "Do not change the flooring.")
			} else {
				assert.NotContains(t, out, "Do not change the flooring.")
			}
		})
	}
}

func TestBuildChangeFlooringDropsRule(t *testing.T) {
	out, err := Build("kitchen", domain.StyleModern, domain.RestageOptions{
		TransformationMode: domain.ModeRedesign,
		ChangeFlooring:     true,
		FlooringMaterial:   domain.FlooringWood,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Replace the flooring with wood.")
	assert.NotContains(t, out, "Do not change the flooring.")
}

func TestBuildUnsupportedMode(t *testing.T) {
	_, err := Build("bedroom", domain.StyleModern, domain.RestageOptions{
		TransformationMode: "teleport",
	})
	require.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestBuildBlankOptionsIgnored(t *testing.T) {
	out, err := Build("bedroom", domain.StyleModern, domain.RestageOptions{
		TransformationMode:     domain.ModeFurnish,
		Repaint:                true,
		PaintColor:             "   ",
		AdditionalInstructions: "  \t ",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Repaint the walls in a color that complements the style.")
	assert.NotContains(t, out, "   ")
}

func TestBuildAdditionalInstructions(t *testing.T) {
	out, err := Build("home_office", domain.StyleIndustrial, domain.RestageOptions{
		TransformationMode:     domain.ModeFurnish,
		AdditionalInstructions: "Add a standing desk",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Add a standing desk.")
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"living_room", "living room"},
		{"Mid_Century", "mid century"},
		{"day-to-dusk", "day to dusk"},
		{"  Home   Office ", "home office"},
		{"kitchen", "kitchen"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Humanize(tc.in))
	}
}
