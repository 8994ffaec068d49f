package gateway

import (
	"context"
	"encoding/json"
	"net/http"
)

// PostTweet publishes text on behalf of the holder of accessToken. The client
// must be built with Name "twitter", the Twitter API base URL and Prefix "/".
func (c *Client) PostTweet(ctx context.Context, accessToken, text string) (json.RawMessage, error) {
	r, err := jsonBody(map[string]string{"text": text})
	if err != nil {
		return nil, transportErr("tweets.create", err)
	}
	mode := AuthBearer
	var out json.RawMessage
	err = c.call(ctx, Request{
		Route: "tweets.create", Method: http.MethodPost, Path: "/2/tweets",
		Token: accessToken, Auth: &mode, Body: r, ContentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
