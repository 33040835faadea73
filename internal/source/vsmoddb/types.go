package vsmoddb

import "encoding/json"

// Vintage Story mod DB API response types
// API docs: https://mods.vintagestory.at/api

// listResponse wraps GET /api/mods. Records are kept raw so one bad record
// cannot fail the whole listing.
type listResponse struct {
	StatusCode string            `json:"statuscode"`
	Mods       []json.RawMessage `json:"mods"`
}

// detailResponse wraps GET /api/mod/{id}
type detailResponse struct {
	StatusCode string     `json:"statuscode"`
	Mod        *rawDetail `json:"mod"`
}

// rawMod is one entry of the mod listing
type rawMod struct {
	ModID        int      `json:"modid"`
	AssetID      int      `json:"assetid"`
	Downloads    *int     `json:"downloads"`
	Follows      int      `json:"follows"`
	TrendingPts  int      `json:"trendingpoints"`
	Comments     int      `json:"comments"`
	Name         string   `json:"name"`
	Summary      string   `json:"summary"`
	ModIDStrs    []string `json:"modidstrs"`
	Author       string   `json:"author"`
	URLAlias     *string  `json:"urlalias"`
	Side         string   `json:"side"`
	Type         string   `json:"type"`
	Logo         *string  `json:"logo"`
	Tags         []string `json:"tags"`
	LastReleased *string  `json:"lastreleased"`
}

// rawDetail is the full record for one mod
type rawDetail struct {
	ModID           int             `json:"modid"`
	AssetID         int             `json:"assetid"`
	Name            string          `json:"name"`
	Text            string          `json:"text"`
	Author          string          `json:"author"`
	URLAlias        *string         `json:"urlalias"`
	LogoFilename    *string         `json:"logofilename"`
	LogoFile        *string         `json:"logofile"`
	HomepageURL     *string         `json:"homepageurl"`
	SourceCodeURL   *string         `json:"sourcecodeurl"`
	TrailerVideoURL *string         `json:"trailervideourl"`
	IssueTrackerURL *string         `json:"issuetrackerurl"`
	WikiURL         *string         `json:"wikiurl"`
	Downloads       *int            `json:"downloads"`
	Follows         int             `json:"follows"`
	TrendingPoints  int             `json:"trendingpoints"`
	Comments        int             `json:"comments"`
	Side            string          `json:"side"`
	Type            string          `json:"type"`
	Created         string          `json:"created"`
	LastModified    *string         `json:"lastmodified"`
	Tags            []string        `json:"tags"`
	Releases        []rawRelease    `json:"releases"`
	Screenshots     []rawScreenshot `json:"screenshots"`
}

// rawRelease is one uploaded version of a mod
type rawRelease struct {
	ReleaseID  int      `json:"releaseid"`
	MainFile   string   `json:"mainfile"`
	FileName   string   `json:"filename"`
	FileID     int      `json:"fileid"`
	Downloads  int      `json:"downloads"`
	Tags       []string `json:"tags"` // game versions
	ModIDStr   string   `json:"modidstr"`
	ModVersion string   `json:"modversion"`
	Created    string   `json:"created"`
}

// rawScreenshot is an image attached to a mod page
type rawScreenshot struct {
	FileID            int    `json:"fileid"`
	MainFile          string `json:"mainfile"`
	FileName          string `json:"filename"`
	ThumbnailFilename string `json:"thumbnailfilename"`
	Created           string `json:"created"`
}
