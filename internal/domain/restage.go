package domain

import (
	"errors"
	"strings"
	"time"
)

type TransformationMode string

const (
	ModeFurnish   TransformationMode = "furnish"
	ModeEmpty     TransformationMode = "empty"
	ModeRedesign  TransformationMode = "redesign"
	ModeEnhance   TransformationMode = "enhance"
	ModeRenovate  TransformationMode = "renovate"
	ModeDayToDusk TransformationMode = "day_to_dusk"
	ModeOutdoor   TransformationMode = "outdoor"
	ModeBlueSky   TransformationMode = "blue_sky"
)

type RoomType string

const (
	RoomLivingRoom RoomType = "living_room"
	RoomBedroom    RoomType = "bedroom"
	RoomKitchen    RoomType = "kitchen"
	RoomDiningRoom RoomType = "dining_room"
	RoomBathroom   RoomType = "bathroom"
	RoomHomeOffice RoomType = "home_office"
	RoomKidsRoom   RoomType = "kids_room"
	RoomPatio      RoomType = "patio"
	RoomOther      RoomType = "other"
)

type DesignStyle string

const (
	StyleModern       DesignStyle = "modern"
	StyleScandinavian DesignStyle = "scandinavian"
	StyleIndustrial   DesignStyle = "industrial"
	StyleBohemian     DesignStyle = "bohemian"
	StyleMinimalist   DesignStyle = "minimalist"
	StyleCoastal      DesignStyle = "coastal"
	StyleFarmhouse    DesignStyle = "farmhouse"
	StyleMidCentury   DesignStyle = "mid_century"
	StyleLuxury       DesignStyle = "luxury"
	StyleJapandi      DesignStyle = "japandi"
	StyleTraditional  DesignStyle = "traditional"
)

type FlooringMaterial string

const (
	FlooringCarpet   FlooringMaterial = "carpet"
	FlooringWood     FlooringMaterial = "wood"
	FlooringTile     FlooringMaterial = "tile"
	FlooringLaminate FlooringMaterial = "laminate"
)

var (
	ErrMissingImage  = errors.New("source image is required")
	ErrUnlabeledRoom = errors.New("custom room label is required when room type is \"other\"")
)

// RestageOptions carries the per-image knobs that shape the generated prompt.
type RestageOptions struct {
	Repaint                bool               `json:"repaint"`
	PaintColor             string             `json:"paint_color,omitempty"`
	ChangeFlooring         bool               `json:"change_flooring"`
	FlooringMaterial       FlooringMaterial   `json:"flooring_material,omitempty"`
	AdditionalInstructions string             `json:"additional_instructions,omitempty"`
	TransformationMode     TransformationMode `json:"transformation_mode"`
	UpdateFlooring         bool               `json:"update_flooring"`
	BlockDecorative        bool               `json:"block_decorative"`
}

// RestageRequest is a fully-specified restage of one room photo. Exactly one of
// SourceImage and SourceURL must be set.
type RestageRequest struct {
	SourceImage     []byte
	SourceURL       string
	MimeType        string
	RoomType        RoomType
	CustomRoomLabel string
	DesignStyle     DesignStyle
	Options         RestageOptions
}

// RoomLabel resolves the effective room label, substituting the custom label
// when the room type is "other".
func (r *RestageRequest) RoomLabel() string {
	if r.RoomType == RoomOther {
		return strings.TrimSpace(r.CustomRoomLabel)
	}
	return string(r.RoomType)
}

// Validate gates a request before any network call is attempted.
func (r *RestageRequest) Validate() error {
	if len(r.SourceImage) == 0 && strings.TrimSpace(r.SourceURL) == "" {
		return ErrMissingImage
	}
	if r.RoomType == RoomOther && strings.TrimSpace(r.CustomRoomLabel) == "" {
		return ErrUnlabeledRoom
	}
	return nil
}

// Restaged is the terminal result of one successful pipeline run.
type Restaged struct {
	RequestID string
	TaskID    string
	Images    []string
	Provider  string
	Elapsed   time.Duration
}

const (
	DefaultMaxUploadSize = 32 << 20
	DefaultJPEGQuality   = 85
	DefaultStampText     = "Virtually staged"
)
