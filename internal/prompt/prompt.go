package prompt

import (
	"errors"
	"fmt"
	"strings"

	"restage-service/internal/domain"
)

// ErrUnsupportedMode is returned for a transformation mode the builder does
// not know. Unknown modes are a hard error, never a silent fallback.
var ErrUnsupportedMode = errors.New("unsupported transformation mode")

// Build turns a resolved room label, a design style, and the restage options
// into the instruction text sent to the image provider. The output is
// deterministic: identical inputs always produce identical text.
func Build(roomLabel string, style domain.DesignStyle, opts domain.RestageOptions) (string, error) {
	room := Humanize(roomLabel)
	styleName := Humanize(string(style))

	base, err := baseSentence(opts.TransformationMode, room, styleName)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(base)

	if opts.Repaint {
		if color := strings.TrimSpace(opts.PaintColor); color != "" {
			fmt.Fprintf(&b, " Repaint the walls in %s.", color)
		} else {
			b.WriteString(" Repaint the walls in a color that complements the style.")
		}
	}
	if opts.ChangeFlooring {
		if opts.FlooringMaterial != "" {
			fmt.Fprintf(&b, " Replace the flooring with %s.", Humanize(string(opts.FlooringMaterial)))
		} else {
			b.WriteString(" Replace the flooring with a material that suits the style.")
		}
	}
	if extra := strings.TrimSpace(opts.AdditionalInstructions); extra != "" {
		b.WriteString(" ")
		b.WriteString(extra)
		if !strings.HasSuffix(extra, ".") {
			b.WriteString(".")
		}
	}

	b.WriteString("\n\nFollow these rules strictly:")
	b.WriteString("\n- Do not alter structural elements such as walls, windows, doors, or ceilings.")
	if !opts.ChangeFlooring && flooringRuleApplies(opts.TransformationMode) {
		b.WriteString("\n- Do not change the flooring.")
	}
	if opts.BlockDecorative {
		b.WriteString("\n- Do not add decorative items such as plants, vases, or animals.")
	}
	b.WriteString("\n- Keep the camera angle and perspective of the original photo.")
	b.WriteString("\n- The result must look like a realistic photograph, not a rendering.")

	return b.String(), nil
}

func baseSentence(mode domain.TransformationMode, room, style string) (string, error) {
	switch mode {
	case domain.ModeFurnish:
		return fmt.Sprintf("Professionally stage this %s with furniture and decor in %s style.", room, style), nil
	case domain.ModeEmpty:
		return fmt.Sprintf("Remove all furniture, decor, and loose items from this %s, leaving the space completely empty.", room), nil
	case domain.ModeRedesign:
		return fmt.Sprintf("Redesign this %s in %s style, replacing the existing furniture and decor.", room, style), nil
	case domain.ModeEnhance:
		return fmt.Sprintf("Enhance this photo of a %s: improve lighting, exposure, and color balance while keeping the contents unchanged.", room), nil
	case domain.ModeRenovate:
		return fmt.Sprintf("Renovate this %s in %s style, updating finishes, fixtures, and surfaces.", room, style), nil
	case domain.ModeDayToDusk:
		return fmt.Sprintf("Transform this photo of a %s from daytime to a warm dusk scene with a twilight sky and interior lights turned on.", room), nil
	case domain.ModeOutdoor:
		return fmt.Sprintf("Stage this outdoor %s in %s style with suitable outdoor furniture.", room, style), nil
	case domain.ModeBlueSky:
		return fmt.Sprintf("Replace the sky in this photo of a %s with a clear blue sky and natural daylight.", room), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
}

// flooringRuleApplies reports whether the "do not change flooring" rule makes
// sense for the mode. Emptying a room, photo enhancement, and sky edits never
// touch flooring, so the rule would only add noise there.
func flooringRuleApplies(mode domain.TransformationMode) bool {
	switch mode {
	case domain.ModeEmpty, domain.ModeEnhance, domain.ModeDayToDusk:
		return false
	default:
		return true
	}
}

// Humanize converts enum-style labels into prose words, e.g. "living_room"
// becomes "living room" and "Mid_Century" becomes "mid century".
func Humanize(label string) string {
	s := strings.TrimSpace(label)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
