package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stayhub/pkg/model"
)

type RoomClient struct {
	httpClient *HttpClient
}

func NewRoomClient(baseUrl string) *RoomClient {
	return &RoomClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *RoomClient) GetAll(roomType string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if roomType != "" {
		q.Set("type", roomType)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	return c.httpClient.GET("/api/v1/rooms?" + q.Encode())
}

func (c *RoomClient) GetByID(id string) (*Response, error) {
	path := "/api/v1/rooms/id/" + url.PathEscape(id)
	return c.httpClient.GET(path)
}

func (c *RoomClient) DecodeRoom(resp *Response) (*model.Room, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode room wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var room model.Room
	if err := json.Unmarshal(wrapper.Data, &room); err != nil {
		return nil, fmt.Errorf("could not decode room json:\n%+v\n%s", resp.ToString(), err)
	}

	return &room, nil
}

func (c *RoomClient) DecodeRooms(resp *Response) ([]*model.Room, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var rooms []*model.Room
	if err := json.Unmarshal(wrapper.Data, &rooms); err != nil {
		return nil, nil, fmt.Errorf("could not decode room list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return rooms, metadata, nil
}
