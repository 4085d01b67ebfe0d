package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikes(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	v := ts.publish(t, alice, "Clip", true)

	var res map[string]bool
	likePath := fmt.Sprintf("/api/v1/likes/toggle/v/%d", v.ID)
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodPost, likePath, bob.Token, nil, &res))
	assert.True(t, res["isLiked"])

	var got videoJSON
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodGet, fmt.Sprintf("/api/v1/videos/%d", v.ID), bob.Token, nil, &got))
	assert.Equal(t, int64(1), got.LikesCount)
	assert.True(t, got.IsLiked)

	var liked pageJSON[videoJSON]
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodGet, "/api/v1/likes/videos", bob.Token, nil, &liked))
	require.Len(t, liked.Records, 1)
	assert.Equal(t, v.ID, liked.Records[0].ID)

	require.Equal(t, http.StatusOK, ts.json(t, http.MethodPost, likePath, bob.Token, nil, &res))
	assert.False(t, res["isLiked"])

	assert.Equal(t, http.StatusNotFound, ts.json(t, http.MethodPost, "/api/v1/likes/toggle/c/999", bob.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.json(t, http.MethodPost, "/api/v1/likes/toggle/t/999", bob.Token, nil, nil))
}

func TestCommentsAndTweets(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	v := ts.publish(t, alice, "Clip", true)
	commentsPath := fmt.Sprintf("/api/v1/comments/%d", v.ID)

	var comment struct {
		ID      uint   `json:"id"`
		Content string `json:"content"`
	}
	require.Equal(t, http.StatusCreated, ts.json(t, http.MethodPost, commentsPath, bob.Token, map[string]string{"content": "nice"}, &comment))
	assert.Equal(t, "nice", comment.Content)
	assert.Equal(t, http.StatusBadRequest, ts.json(t, http.MethodPost, commentsPath, bob.Token, map[string]string{"content": "  "}, nil))
	assert.Equal(t, http.StatusNotFound, ts.json(t, http.MethodPost, "/api/v1/comments/999", bob.Token, map[string]string{"content": "x"}, nil))

	var page pageJSON[map[string]any]
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodGet, commentsPath, "", nil, &page))
	assert.Equal(t, int64(1), page.TotalRecords)

	cPath := fmt.Sprintf("/api/v1/comments/c/%d", comment.ID)
	assert.Equal(t, http.StatusForbidden, ts.json(t, http.MethodPatch, cPath, alice.Token, map[string]string{"content": "edited"}, nil))
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodPatch, cPath, bob.Token, map[string]string{"content": "edited"}, &comment))
	assert.Equal(t, "edited", comment.Content)
	assert.Equal(t, http.StatusOK, ts.json(t, http.MethodDelete, cPath, bob.Token, nil, nil))

	var tweet struct {
		ID uint `json:"id"`
	}
	require.Equal(t, http.StatusCreated, ts.json(t, http.MethodPost, "/api/v1/tweets", alice.Token, map[string]string{"content": "hello"}, &tweet))
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodPost, fmt.Sprintf("/api/v1/likes/toggle/t/%d", tweet.ID), bob.Token, nil, nil))

	var tweets pageJSON[struct {
		Content    string `json:"content"`
		LikesCount int64  `json:"likesCount"`
		IsLiked    bool   `json:"isLiked"`
	}]
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodGet, fmt.Sprintf("/api/v1/tweets/user/%d", alice.ID), bob.Token, nil, &tweets))
	require.Len(t, tweets.Records, 1)
	assert.Equal(t, int64(1), tweets.Records[0].LikesCount)
	assert.True(t, tweets.Records[0].IsLiked)

	tPath := fmt.Sprintf("/api/v1/tweets/%d", tweet.ID)
	assert.Equal(t, http.StatusForbidden, ts.json(t, http.MethodDelete, tPath, bob.Token, nil, nil))
	assert.Equal(t, http.StatusOK, ts.json(t, http.MethodDelete, tPath, alice.Token, nil, nil))
}

func TestSubscriptions(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	ts.publish(t, alice, "Latest", true)

	var res map[string]bool
	subPath := fmt.Sprintf("/api/v1/subscriptions/c/%d", alice.ID)
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodPost, subPath, bob.Token, nil, &res))
	assert.True(t, res["subscribed"])

	var e errorJSON
	assert.Equal(t, http.StatusForbidden, ts.json(t, http.MethodPost, subPath, alice.Token, nil, &e))
	assert.Equal(t, "You cannot subscribe to yourself", e.Error)
	assert.Equal(t, http.StatusNotFound, ts.json(t, http.MethodPost, "/api/v1/subscriptions/c/999", bob.Token, nil, nil))

	var subscribers pageJSON[struct {
		ID                     uint `json:"id"`
		SubscribedToSubscriber bool `json:"subscribedToSubscriber"`
	}]
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodGet, subPath, "", nil, &subscribers))
	require.Len(t, subscribers.Records, 1)
	assert.Equal(t, bob.ID, subscribers.Records[0].ID)
	assert.False(t, subscribers.Records[0].SubscribedToSubscriber)

	var channels pageJSON[struct {
		ID          uint `json:"id"`
		LatestVideo *struct {
			Title string `json:"title"`
		} `json:"latestVideo"`
	}]
	require.Equal(t, http.StatusOK, ts.json(t, http.MethodGet, fmt.Sprintf("/api/v1/subscriptions/u/%d", bob.ID), "", nil, &channels))
	require.Len(t, channels.Records, 1)
	assert.Equal(t, alice.ID, channels.Records[0].ID)
	require.NotNil(t, channels.Records[0].LatestVideo)
	assert.Equal(t, "Latest", channels.Records[0].LatestVideo.Title)

	require.Equal(t, http.StatusOK, ts.json(t, http.MethodPost, subPath, bob.Token, nil, &res))
	assert.False(t, res["subscribed"])
}
