package service

import (
	"sort"

	"github.com/realriphub/cmt-rr/internal/dto"
)

// BuildCommentTree 将评论整理为两层结构：根评论下挂其所有后代（按时间升序）。
// 输入需已按展示顺序排好，根评论保持输入顺序。父评论缺失或存在环的回复不会出现在结果中。
func BuildCommentTree(comments []*dto.CommentResponse) []*dto.CommentResponse {
	byID := make(map[uint]*dto.CommentResponse, len(comments))
	for _, c := range comments {
		c.Replies = []*dto.CommentResponse{}
		byID[c.ID] = c
	}

	roots := make([]*dto.CommentResponse, 0)
	for _, c := range comments {
		if c.ParentID == nil {
			roots = append(roots, c)
		}
	}

	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		parent, ok := byID[*c.ParentID]
		if !ok {
			continue
		}
		c.ReplyToAuthor = parent.Name

		root := findRoot(c, byID)
		if root == nil {
			continue
		}
		root.Replies = append(root.Replies, c)
	}

	for _, root := range roots {
		sort.SliceStable(root.Replies, func(i, j int) bool {
			return root.Replies[i].Created < root.Replies[j].Created
		})
	}
	return roots
}

// findRoot 沿 parent 链向上查找根评论，断链或成环时返回 nil
func findRoot(c *dto.CommentResponse, byID map[uint]*dto.CommentResponse) *dto.CommentResponse {
	visited := map[uint]bool{c.ID: true}
	cur := c
	for cur.ParentID != nil {
		next, ok := byID[*cur.ParentID]
		if !ok || visited[next.ID] {
			return nil
		}
		visited[next.ID] = true
		cur = next
	}
	return cur
}

// Paginate 截取第 page 页，page 从 1 开始
func Paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if limit <= 0 || start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
