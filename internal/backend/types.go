package backend

// ProcessRequest is the body of POST {base}/process_url.
type ProcessRequest struct {
	URL    string `json:"url"`
	Locale string `json:"locale"`
}

// ProcessResponse mirrors a successful process_url payload.
type ProcessResponse struct {
	Message string   `json:"message"`
	Images  []string `json:"images"`
	ZipFile string   `json:"zip_file"`
}

// errorResponse is the optional body of a failed call.
type errorResponse struct {
	Error string `json:"error"`
}

// ImageRef pairs an opaque collaborator identifier with its download URL.
type ImageRef struct {
	ID  string
	URL string
}

// HealthInfo is what the collaborator's root endpoint reports.
type HealthInfo struct {
	ServerIP string `json:"server_ip"`
}
