package sink_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/internal/log"
	vtest "github.com/Alia5/padboard/internal/testing"
	"github.com/Alia5/padboard/internal/viiper"
	"github.com/Alia5/padboard/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamEquals(srv *vtest.ViiperServer, want []byte) func() bool {
	return func() bool { return bytes.Equal(srv.StreamBytes(), want) }
}

func TestViiperSink(t *testing.T) {
	srv := vtest.NewViiperServer(t, "")
	client := viiper.New(srv.Addr, viiper.DefaultConfig(), nil)

	var raw bytes.Buffer
	s, err := sink.NewViiper(t.Context(), client, 0, sink.WithViiperRawLogger(log.NewRaw(&raw)))
	require.NoError(t, err)

	devs := srv.Devices(sink.DefaultBus)
	require.Len(t, devs, 1)
	assert.Equal(t, viiper.DeviceTypeKeyboard, devs[0].Type)

	require.NoError(t, s.Key(evdev.KEY_A, 1))
	require.NoError(t, s.Sync())
	assert.Eventually(t, streamEquals(srv, []byte{0, 1, 0x04}), 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Key(evdev.KEY_A, 2))
	require.NoError(t, s.Sync())
	require.NoError(t, s.Key(evdev.KEY_A, 0))
	require.NoError(t, s.Sync())
	assert.Eventually(t, streamEquals(srv, []byte{0, 1, 0x04, 0, 0}), 5*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, s.Key(evdev.BTN_A, 1), sink.ErrUnmapped)

	require.NoError(t, s.Key(evdev.KEY_LEFTSHIFT, 1))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Eventually(t, streamEquals(srv, []byte{0, 1, 0x04, 0, 0, 0, 0}), 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, srv.Devices(sink.DefaultBus))
	assert.Equal(t, 3, bytes.Count(raw.Bytes(), []byte("viiper chunk:")))
}

func TestViiperSinkExistingBus(t *testing.T) {
	srv := vtest.NewViiperServer(t, "pw")
	srv.AddBus(7)
	cfg := viiper.DefaultConfig()
	cfg.Password = "pw"

	s, err := sink.NewViiper(t.Context(), viiper.New(srv.Addr, cfg, nil), 0)
	require.NoError(t, err)
	defer s.Close()

	assert.Len(t, srv.Devices(7), 1)
	assert.NotContains(t, srv.Requests(), "bus/create 1")
}

func TestViiperSinkRequestedBus(t *testing.T) {
	srv := vtest.NewViiperServer(t, "")
	srv.AddBus(7)

	s, err := sink.NewViiper(t.Context(), viiper.New(srv.Addr, viiper.DefaultConfig(), nil), 3)
	require.NoError(t, err)
	defer s.Close()

	assert.Contains(t, srv.Requests(), "bus/create 3")
	assert.Len(t, srv.Devices(3), 1)
	assert.Empty(t, srv.Devices(7))
}

func TestViiperSinkUnreachable(t *testing.T) {
	_, err := sink.NewViiper(t.Context(), viiper.New("127.0.0.1:1", viiper.DefaultConfig(), nil), 0)
	assert.Error(t, err)
}
