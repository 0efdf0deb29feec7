package dto

type StageResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	TaskID  string `json:"taskId"`
	Message string `json:"message,omitempty"`
}

type StatusResponse struct {
	Success bool     `json:"success"`
	Status  string   `json:"status"`
	Images  []string `json:"images,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type RestageResponse struct {
	Success   bool     `json:"success"`
	RequestID string   `json:"request_id"`
	TaskID    string   `json:"taskId,omitempty"`
	Provider  string   `json:"provider"`
	Images    []string `json:"images"`
	ElapsedMS int64    `json:"elapsed_ms"`
}

type BatchItemResponse struct {
	Index  int      `json:"index"`
	Status string   `json:"status"`
	TaskID string   `json:"taskId,omitempty"`
	Images []string `json:"images,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type BatchResponse struct {
	Success bool                `json:"success"`
	Queued  bool                `json:"queued"`
	Items   []BatchItemResponse `json:"items,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
