package models

// Evidence is the aggregate result of one capture-pipeline run.
// AudioURL is empty when the audio clip could not be captured; ImageURLs
// keeps capture order and contains successful uploads only.
type Evidence struct {
	AudioURL  string   `json:"audio_url,omitempty"`
	ImageURLs []string `json:"image_urls"`
}

func (e Evidence) Empty() bool {
	return e.AudioURL == "" && len(e.ImageURLs) == 0
}
