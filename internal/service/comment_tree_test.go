package service

import (
	"testing"

	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id uint, parent *uint, name string, created int64) *dto.CommentResponse {
	return &dto.CommentResponse{ID: id, ParentID: parent, Name: name, Created: created}
}

func ids(list []*dto.CommentResponse) []uint {
	out := make([]uint, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestBuildCommentTree(t *testing.T) {
	// 输入按 created 倒序，模拟数据库排序
	comments := []*dto.CommentResponse{
		node(5, uintPtr(3), "eve", 500),
		node(4, nil, "dan", 400),
		node(3, uintPtr(2), "carol", 300),
		node(2, uintPtr(1), "bob", 200),
		node(1, nil, "alice", 100),
	}

	roots := BuildCommentTree(comments)
	require.Len(t, roots, 2)
	assert.Equal(t, []uint{4, 1}, ids(roots))

	alice := roots[1]
	assert.Equal(t, []uint{2, 3, 5}, ids(alice.Replies))
	assert.Equal(t, "alice", alice.Replies[0].ReplyToAuthor)
	assert.Equal(t, "bob", alice.Replies[1].ReplyToAuthor)
	assert.Equal(t, "carol", alice.Replies[2].ReplyToAuthor)

	assert.Empty(t, roots[0].Replies)
	assert.NotNil(t, roots[0].Replies)
}

func TestBuildCommentTreeOrphansAndCycles(t *testing.T) {
	comments := []*dto.CommentResponse{
		node(1, nil, "root", 100),
		node(2, uintPtr(99), "orphan", 200),
		node(3, uintPtr(4), "loop-a", 300),
		node(4, uintPtr(3), "loop-b", 400),
		node(5, uintPtr(5), "self", 500),
		node(6, uintPtr(2), "orphan-child", 600),
	}

	roots := BuildCommentTree(comments)
	require.Len(t, roots, 1)
	assert.Equal(t, uint(1), roots[0].ID)
	assert.Empty(t, roots[0].Replies)
	assert.Equal(t, "orphan", comments[5].ReplyToAuthor)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name        string
		page, limit int
		want        []int
	}{
		{name: "first page", page: 1, limit: 2, want: []int{1, 2}},
		{name: "last partial page", page: 3, limit: 2, want: []int{5}},
		{name: "beyond range", page: 4, limit: 2, want: []int{}},
		{name: "page below one", page: 0, limit: 2, want: []int{1, 2}},
		{name: "limit larger than items", page: 1, limit: 50, want: []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(items, tt.page, tt.limit))
		})
	}
}
