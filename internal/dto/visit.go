package dto

import "encoding/json"

// VisitRequest 访问上报
type VisitRequest struct {
	PostSlug  string `json:"postSlug"`
	PostTitle string `json:"postTitle"`
	PostURL   string `json:"postUrl"`
}

// UnmarshalJSON 兼容 snake_case 字段
func (r *VisitRequest) UnmarshalJSON(data []byte) error {
	type alias VisitRequest
	aux := struct {
		*alias
		PostSlugSnake  *string `json:"post_slug"`
		PostTitleSnake *string `json:"post_title"`
		PostURLSnake   *string `json:"post_url"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.PostSlug == "" && aux.PostSlugSnake != nil {
		r.PostSlug = *aux.PostSlugSnake
	}
	if r.PostTitle == "" && aux.PostTitleSnake != nil {
		r.PostTitle = *aux.PostTitleSnake
	}
	if r.PostURL == "" && aux.PostURLSnake != nil {
		r.PostURL = *aux.PostURLSnake
	}
	return nil
}

// VisitResponse 访问上报结果
type VisitResponse struct {
	Counted bool `json:"counted"`
}

// PageLikeRequest 页面点赞
type PageLikeRequest struct {
	PostSlug string `json:"postSlug" binding:"required"`
}

// PageLikeResponse 页面点赞状态
type PageLikeResponse struct {
	Likes int64 `json:"likes"`
	Liked bool  `json:"liked"`
}
