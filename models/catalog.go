package models

import "encoding/json"

// Envelope is the wire contract of every proxy response.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *EnvelopeError `json:"error,omitempty"`
}

type EnvelopeError struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	URL     string `json:"url,omitempty"`
}

// EpisodeList is the subset of the upstream episode list the tooling reads.
// The proxy itself forwards the upstream body untouched.
type EpisodeList struct {
	TotalEpisodes int       `json:"totalEpisodes"`
	Episodes      []Episode `json:"episodes"`
}

type Episode struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	EpisodeID string `json:"episodeId"`
	IsFiller  bool   `json:"isFiller"`
}

// EpisodeServer is one entry of the per-category server lists.
type EpisodeServer struct {
	ServerID   int    `json:"serverId"`
	ServerName string `json:"serverName"`
}

type EpisodeServers struct {
	EpisodeID string          `json:"episodeId"`
	EpisodeNo int             `json:"episodeNo"`
	Sub       []EpisodeServer `json:"sub"`
	Dub       []EpisodeServer `json:"dub"`
	Raw       []EpisodeServer `json:"raw"`
}

// AnimeOverview bundles details and episodes fetched side by side.
type AnimeOverview struct {
	Details  json.RawMessage `json:"details"`
	Episodes json.RawMessage `json:"episodes"`
}

// HealthStatus is returned by the health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
