package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	PostKeyPrefix      = "post:%d"
	PostsListKeyPrefix = "posts:page:%d:%d"
	TagListKey         = "tags:all"
)

const (
	UserTTL      = 5 * time.Minute
	PostTTL      = 10 * time.Minute
	PostsListTTL = 1 * time.Minute
	TagListTTL   = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func PostsListKey(limit, offset int) string {
	return fmt.Sprintf(PostsListKeyPrefix, limit, offset)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePost drops the cached post and every cached list page, since
// any write to a post can change list ordering and aggregates.
func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	InvalidatePostLists(ctx)
}

func InvalidatePostLists(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "posts:page:*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, TagListKey)
}
