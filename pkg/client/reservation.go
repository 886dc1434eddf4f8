package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stayhub/pkg/model"
)

// UserIDHeader mirrors the identity header the reservations service
// expects on authenticated routes.
const UserIDHeader = "X-User-ID"

type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseUrl string) *ReservationClient {
	return &ReservationClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *ReservationClient) WaitForHealthy(maxWaitSeconds int) error {
	return c.httpClient.WaitForHealthy(time.Duration(maxWaitSeconds) * time.Second)
}

func (c *ReservationClient) Availability(checkIn, checkOut, roomType string) (*Response, error) {
	q := url.Values{}
	q.Set("check_in", checkIn)
	q.Set("check_out", checkOut)
	if roomType != "" {
		q.Set("type", roomType)
	}

	return c.httpClient.GET("/api/v1/availability?" + q.Encode())
}

func (c *ReservationClient) Create(userID string, body any) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/reservations", body, map[string]string{
		UserIDHeader: userID,
	})
}

func (c *ReservationClient) CreateRaw(userID string, rawBody []byte) (*Response, error) {
	return c.httpClient.requestRaw(http.MethodPost, "/api/v1/reservations", rawBody, map[string]string{
		UserIDHeader: userID,
	})
}

func (c *ReservationClient) GetAll(userID string, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/reservations?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GETWithHeaders(path, map[string]string{
		UserIDHeader: userID,
	})
}

func (c *ReservationClient) GetByID(id string) (*Response, error) {
	path := "/api/v1/reservations/id/" + url.PathEscape(id)
	return c.httpClient.GET(path)
}

func (c *ReservationClient) Cancel(userID string, id string) (*Response, error) {
	path := "/api/v1/reservations/id/" + url.PathEscape(id)
	return c.httpClient.DELETEWithHeaders(path, map[string]string{
		UserIDHeader: userID,
	})
}

func (c *ReservationClient) DecodeReservation(resp *Response) (*model.Reservation, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode reservation wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var reservation model.Reservation
	if err := json.Unmarshal(wrapper.Data, &reservation); err != nil {
		return nil, fmt.Errorf("could not decode reservation json:\n%+v\n%s", resp.ToString(), err)
	}

	return &reservation, nil
}

func (c *ReservationClient) DecodeReservations(resp *Response) ([]*model.Reservation, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var reservations []*model.Reservation
	if err := json.Unmarshal(wrapper.Data, &reservations); err != nil {
		return nil, nil, fmt.Errorf("could not decode reservation list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return reservations, metadata, nil
}

func (c *ReservationClient) DecodeRooms(resp *Response) ([]*model.Room, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode rooms wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var rooms []*model.Room
	if err := json.Unmarshal(wrapper.Data, &rooms); err != nil {
		return nil, fmt.Errorf("could not decode room list:\n%+v\n%s", resp.ToString(), err)
	}

	return rooms, nil
}
