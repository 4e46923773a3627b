package natsadapter

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// EncodeArea serialises an area request as a protobuf Struct.
func EncodeArea(a domain.AreaRequest) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"id":           a.ID,
		"lat":          a.Center.Lat,
		"lng":          a.Center.Lng,
		"radius":       a.RadiusMeters,
		"requested_at": a.RequestedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode area: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeArea is the inverse of EncodeArea.
func DecodeArea(data []byte) (domain.AreaRequest, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return domain.AreaRequest{}, fmt.Errorf("decode area: %w", err)
	}
	f := s.GetFields()

	id := f["id"].GetStringValue()
	if id == "" {
		return domain.AreaRequest{}, fmt.Errorf("decode area: missing id")
	}
	a := domain.AreaRequest{
		ID:           id,
		Center:       domain.Coordinate{Lat: f["lat"].GetNumberValue(), Lng: f["lng"].GetNumberValue()},
		RadiusMeters: int(math.Round(f["radius"].GetNumberValue())),
	}
	if ts := f["requested_at"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return domain.AreaRequest{}, fmt.Errorf("decode area time: %w", err)
		}
		a.RequestedAt = t
	}
	return a, nil
}
