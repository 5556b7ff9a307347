package domain

// Setting is one site setting as returned by the admin API.
type Setting struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Settings maps setting_key to its value and type.
type Settings map[string]Setting
