package dto

// StageRequest is the body of the provider-proxy submit endpoint. Image is a
// data URI or a public URL.
type StageRequest struct {
	Image              string `json:"image" validate:"required"`
	TransformationType string `json:"transformation_type"`
	SpaceType          string `json:"space_type"`
	RoomType           string `json:"room_type"`
	DesignStyle        string `json:"design_style"`
	UpdateFlooring     bool   `json:"update_flooring"`
	BlockDecorative    bool   `json:"block_decorative"`
}

type RestageOptions struct {
	Repaint                bool   `json:"repaint"`
	PaintColor             string `json:"paint_color"`
	ChangeFlooring         bool   `json:"change_flooring"`
	FlooringMaterial       string `json:"flooring_material"`
	AdditionalInstructions string `json:"additional_instructions"`
	TransformationMode     string `json:"transformation_mode"`
	UpdateFlooring         bool   `json:"update_flooring"`
	BlockDecorative        bool   `json:"block_decorative"`
}

// RestageItem is one photo in a restage or batch-restage request.
type RestageItem struct {
	Image           string         `json:"image" validate:"required"`
	RoomType        string         `json:"room_type"`
	CustomRoomLabel string         `json:"custom_room_label"`
	DesignStyle     string         `json:"design_style"`
	Options         RestageOptions `json:"options"`
}

type BatchRequest struct {
	Items []RestageItem `json:"items" validate:"required,min=1,dive"`
}
