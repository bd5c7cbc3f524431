package scsi

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityProtocolCDB(t *testing.T) {
	assert.Equal(t, []byte{
		0xa2, 0x20, 0x00, 0x20, 0x00, 0x00, 0x00, 0x00, 0x20, 0x00, 0x00, 0x00,
	}, securityProtocolCDB(SECURITY_PROTOCOL_IN, SECURITY_PROTOCOL_TAPE_DATA_ENCRYPTION, 0x0020, SPIN_BUFFER_LEN))

	assert.Equal(t, []byte{
		0xb5, 0x20, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x34, 0x00, 0x00,
	}, securityProtocolCDB(SECURITY_PROTOCOL_OUT, SECURITY_PROTOCOL_TAPE_DATA_ENCRYPTION, 0x0010, 52))
}

func TestInquiryCDB(t *testing.T) {
	assert.Equal(t, []byte{0x12, 0x00, 0x00, 0x00, 0x60, 0x00}, inquiryCDB(INQUIRY_ALLOC_LEN))
}

func TestParseSense(t *testing.T) {
	fixed := make([]byte, 18)
	fixed[0] = 0xf0
	fixed[2] = 0x05
	fixed[12] = 0x24
	fixed[13] = 0x00

	sense := ParseSense(fixed)
	require.NotNil(t, sense)
	assert.Equal(t, uint8(0x70), sense.ResponseCode)
	assert.Equal(t, SENSE_KEY_ILLEGAL_REQUEST, sense.Key)
	assert.Equal(t, uint8(0x24), sense.ASC)

	sense = ParseSense([]byte{0x72, 0x02, 0x3a, 0x00})
	require.NotNil(t, sense)
	assert.Equal(t, SENSE_KEY_NOT_READY, sense.Key)
	assert.Equal(t, uint8(ASC_MEDIUM_NOT_PRESENT), sense.ASC)

	assert.Nil(t, ParseSense(nil))
	assert.Nil(t, ParseSense([]byte{0x70, 0x00, 0x05}))
	assert.Nil(t, ParseSense([]byte{0x7f, 0x00, 0x00, 0x00}))
}

func TestSgioErrorIs(t *testing.T) {
	illegal := &SgioError{ScsiStatus: 0x02, Sense: &Sense{Key: SENSE_KEY_ILLEGAL_REQUEST, ASC: 0x24}}
	noMedium := &SgioError{ScsiStatus: 0x02, Sense: &Sense{Key: SENSE_KEY_NOT_READY, ASC: ASC_MEDIUM_NOT_PRESENT}}
	noSense := &SgioError{ScsiStatus: 0x02}

	wrapped := fmt.Errorf("SECURITY PROTOCOL IN: %w", illegal)
	assert.True(t, errors.Is(wrapped, ErrNotSupported))
	assert.False(t, errors.Is(wrapped, ErrNoMedium))

	assert.True(t, errors.Is(noMedium, ErrNoMedium))
	assert.True(t, errors.Is(noMedium, ErrNotReady))
	assert.False(t, errors.Is(noMedium, ErrNotSupported))

	assert.False(t, errors.Is(noSense, ErrNotSupported))
	assert.Contains(t, illegal.Error(), "Illegal Request")
}

func TestUnitReadyMapping(t *testing.T) {
	becomingReady := &SgioError{ScsiStatus: 0x02, Sense: &Sense{Key: SENSE_KEY_NOT_READY, ASC: 0x04, ASCQ: 0x01}}
	noMedium := &SgioError{ScsiStatus: 0x02, Sense: &Sense{Key: SENSE_KEY_NOT_READY, ASC: ASC_MEDIUM_NOT_PRESENT}}
	illegal := &SgioError{ScsiStatus: 0x02, Sense: &Sense{Key: SENSE_KEY_ILLEGAL_REQUEST}}

	ready, err := unitReady(nil)
	require.NoError(t, err)
	assert.True(t, ready)

	ready, err = unitReady(becomingReady)
	require.NoError(t, err)
	assert.False(t, ready)

	ready, err = unitReady(noMedium)
	assert.ErrorIs(t, err, ErrNoMedium)
	assert.False(t, ready)

	ready, err = unitReady(illegal)
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.False(t, ready)
}

func TestPollReady(t *testing.T) {
	oldInterval := readyPollInterval
	readyPollInterval = time.Millisecond
	defer func() {
		readyPollInterval = oldInterval
	}()

	calls := 0
	err := pollReady(func() (bool, error) {
		calls++
		return calls == 3, nil
	}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	err = pollReady(func() (bool, error) {
		return false, nil
	}, 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotReady)

	calls = 0
	err = pollReady(func() (bool, error) {
		calls++
		return false, ErrNoMedium
	}, time.Minute)
	assert.ErrorIs(t, err, ErrNoMedium)
	assert.Equal(t, 1, calls)
}
