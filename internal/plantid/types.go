package plantid

// Identification is the outcome of classifying one photo. The access token
// is needed for follow-up questions against the same identification.
type Identification struct {
	AccessToken string
	Suggestions []Suggestion
}

// Suggestion is one ranked species candidate.
type Suggestion struct {
	Name        string
	Probability float64
}

// KBDetail holds knowledge-base enrichment data for a species.
type KBDetail struct {
	CommonNames []string
	Description string
}

// Wire types below mirror the identification service's JSON responses.

type identifyRequest struct {
	Images        []string `json:"images"`
	SimilarImages bool     `json:"similar_images"`
	Datetime      string   `json:"datetime,omitempty"`
}

type identifyResponse struct {
	AccessToken string `json:"access_token"`
	Result      *struct {
		Classification *struct {
			Suggestions []struct {
				Name        string  `json:"name"`
				Probability float64 `json:"probability"`
			} `json:"suggestions"`
		} `json:"classification"`
	} `json:"result"`
}

type searchResponse struct {
	Entities []struct {
		MatchedIn   string `json:"matched_in"`
		AccessToken string `json:"access_token"`
	} `json:"entities"`
}

type kbDetailResponse struct {
	CommonNames []string `json:"common_names"`
	Description struct {
		Value string `json:"value"`
	} `json:"description"`
}

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
}

type askResponse struct {
	Messages []struct {
		Content string `json:"content"`
	} `json:"messages"`
}
