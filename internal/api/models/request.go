package models

// PrepareRequest represents the request body for writing an optimizer input folder.
// Paths are resolved on the server.
type PrepareRequest struct {
	Destination      string `json:"destination" binding:"required"`
	GridFile         string `json:"grid_file" binding:"required"`
	ProfilesDir      string `json:"profiles_dir" binding:"required"` // demand/hydro/solar/wind.csv
	TimepointsFile   string `json:"timepoints_file" binding:"required"`
	TimestampMapFile string `json:"timestamp_map_file" binding:"required"`
	StorageBuses     []int  `json:"storage_buses,omitempty"` // default: from config
}

// LaunchRequest runs the optimizer on a prepared folder. Unset fields fall back
// to the server configuration.
type LaunchRequest struct {
	Folder   string   `json:"folder" binding:"required"`
	Solver   string   `json:"solver,omitempty"`
	Suffixes []string `json:"suffixes,omitempty"`
	Verbose  *bool    `json:"verbose,omitempty"`
}

// ExtractRequest interprets the optimizer outputs of a solved folder.
type ExtractRequest struct {
	Folder          string `json:"folder" binding:"required"`
	AllowRetirement *bool  `json:"allow_retirement,omitempty"` // default: from config
}
