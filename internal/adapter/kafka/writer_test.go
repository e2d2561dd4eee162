package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricampos/WW3-tools/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	produced := time.Date(2019, 2, 1, 12, 0, 0, 0, time.UTC)
	set := &domain.MatchupSet{Tag: "201901_c00", ProducedAt: produced}

	t.Run("buoy record keyed by station", func(t *testing.T) {
		rec := domain.MatchupRecord{
			Time: 1546300800, Station: "41010", Mission: domain.MissionNone,
			Lat: 28.9, Lon: -78.5, LatIdx: 10, LonIdx: 20,
			ModelHs: 1.5, ObsHs: 1.6,
			ModelTm: domain.Missing(), ModelDm: domain.Missing(),
			ModelWind: domain.Missing(), ObsTm: domain.Missing(),
			ObsDm: domain.Missing(), ObsWind: domain.Missing(),
			Depth: domain.Missing(), DistCoast: domain.Missing(),
			Ocean: domain.Missing(), Zone: domain.Missing(),
			Cyclone: domain.Missing(), Cycle: domain.Missing(),
		}

		msg, err := serializeToMessage(set, rec)
		require.NoError(t, err)

		assert.Equal(t, []byte("41010"), msg.Key)
		assert.Contains(t, string(msg.Value), `"station":"41010"`)
		assert.Contains(t, string(msg.Value), `"model_hs":1.5`)
		assert.NotContains(t, string(msg.Value), "NaN")

		require.Len(t, msg.Headers, 3)
		assert.Equal(t, kafkago.Header{Key: "tag", Value: []byte("201901_c00")}, msg.Headers[0])
		assert.Equal(t, kafkago.Header{Key: "time", Value: []byte("1546300800")}, msg.Headers[1])
		assert.Equal(t, kafkago.Header{Key: "produced_at", Value: []byte(produced.Format(time.RFC3339))}, msg.Headers[2])
	})

	t.Run("satellite record keyed by mission", func(t *testing.T) {
		mission, ok := domain.MissionByName("JASON3")
		require.True(t, ok)
		rec := domain.MatchupRecord{
			Time: 1546300800, Mission: mission, Month: 1,
			Lat: -10.5, Lon: 45.0, LatIdx: 3, LonIdx: 4,
			ModelHs: 2.2, ObsHs: 2.4, ModelWind: 9.0, ObsWind: 8.5,
			ModelTm: domain.Missing(), ModelDm: domain.Missing(),
			ObsTm: domain.Missing(), ObsDm: domain.Missing(),
			Depth: 4000, DistCoast: 900,
			Ocean: domain.Missing(), Zone: domain.Missing(),
			Cyclone: domain.Missing(), Cycle: domain.Missing(),
		}

		msg, err := serializeToMessage(set, rec)
		require.NoError(t, err)

		assert.Equal(t, []byte("JASON3"), msg.Key)
		assert.Contains(t, string(msg.Value), `"mission":"JASON3"`)
	})
}

func TestStoreEmptySetIsNoop(t *testing.T) {
	w := &Writer{}
	assert.NoError(t, w.Store(&domain.MatchupSet{}))
}
