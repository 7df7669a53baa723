package message

import (
	"bytes"
	"crypto/sha256"
	"net"
	"testing"

	"github.com/meverselabs/coinnet/common/bin"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMagic = Magic{0xfa, 0xbf, 0xb5, 0xda}

func testVersion() *Version {
	return &Version{
		ProtocolVersion: 70015,
		Services:        SFNodeNetwork,
		Timestamp:       1700000000,
		AddrRecv:        NewNetAddress(net.ParseIP("10.0.0.2"), 18444, SFNodeNetwork),
		AddrFrom:        NewNetAddress(net.ParseIP("2001:db8::1"), 18445, 0),
		Nonce:           0x1122334455667788,
		UserAgent:       "/coinnet:0.1.0/",
		StartHeight:     42,
		Relay:           true,
	}
}

func frame(t *testing.T, magic Magic, cmd string, payload []byte) []byte {
	h := &MessageHeader{
		Magic:    magic,
		Command:  cmd,
		Length:   uint32(len(payload)),
		Checksum: hash.Checksum(payload),
	}
	var buffer bytes.Buffer
	_, err := h.WriteTo(&buffer)
	require.NoError(t, err)
	buffer.Write(payload)
	return buffer.Bytes()
}

func TestVersionFrame(t *testing.T) {
	v := testVersion()
	bs, err := EncodeMessage(testMagic, v)
	require.NoError(t, err)

	payload := bs[HeaderSize:]
	assert.Len(t, payload, 86+len(v.UserAgent))
	assert.Equal(t, testMagic[:], bs[:MagicSize])
	assert.Equal(t, append([]byte("version"), 0, 0, 0, 0, 0), bs[MagicSize:MagicSize+CommandSize])
	assert.Equal(t, uint32(len(payload)), bin.LittleEndian.Order().Uint32(bs[16:20]))

	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	assert.Equal(t, second[:4], bs[20:24])

	nm, err := DecodeMessage(bytes.NewReader(bs), testMagic)
	require.NoError(t, err)
	assert.Equal(t, CmdVersion, nm.Header.Command)
	assert.Equal(t, v, nm.Payload)
}

func TestVersionWithoutRelay(t *testing.T) {
	v := testVersion()
	v.Relay = false
	payload, _, err := bin.WriterToBytes(v)
	require.NoError(t, err)

	nm, err := DecodeMessage(bytes.NewReader(frame(t, testMagic, CmdVersion, payload[:len(payload)-1])), testMagic)
	require.NoError(t, err)
	decoded := nm.Payload.(*Version)
	assert.True(t, decoded.Relay)
	assert.Equal(t, v.UserAgent, decoded.UserAgent)
	assert.Equal(t, v.StartHeight, decoded.StartHeight)
}

func TestDecodeEveryCommand(t *testing.T) {
	acc := types.MustParseAccount("0102030405060708090a0b0c0d0e0f1011121314")
	cb := types.NewCoinBase(7, 50, acc)
	msgs := []Message{
		testVersion(),
		&Verack{},
		&Ping{Nonce: 1},
		&Pong{Nonce: 2},
		&GetAddr{},
		&Addr{Addresses: []*TimedNetAddress{
			{Timestamp: 1700000000, NetAddress: NewNetAddress(net.ParseIP("192.168.0.1"), 8333, SFNodeNetwork)},
		}},
		&BlockMessage{Block: types.NewBlock(hash.DoubleHash([]byte("prev")), 1700000000, []*types.Transaction{cb})},
		&TxMessage{Tx: cb},
	}
	var stream bytes.Buffer
	for _, m := range msgs {
		_, err := WriteMessage(&stream, testMagic, m)
		require.NoError(t, err)
	}
	for _, m := range msgs {
		nm, err := DecodeMessage(&stream, testMagic)
		require.NoError(t, err, m.Command())
		assert.Equal(t, m, nm.Payload)
	}
	assert.Equal(t, 0, stream.Len())
	assert.Len(t, Commands(), len(msgs))
}

func TestChecksumBitFlip(t *testing.T) {
	bs, err := EncodeMessage(testMagic, &Ping{Nonce: 0xdeadbeefcafebabe})
	require.NoError(t, err)
	for i := HeaderSize; i < len(bs); i++ {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte{}, bs...)
			flipped[i] ^= 1 << bit
			_, err := DecodeMessage(bytes.NewReader(flipped), testMagic)
			if errors.Cause(err) != ErrChecksumMismatch {
				t.Fatalf("byte %v bit %v: DecodeMessage() = %v, want %v", i, bit, err, ErrChecksumMismatch)
			}
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	ping, err := EncodeMessage(testMagic, &Ping{Nonce: 9})
	require.NoError(t, err)
	oversize := frame(t, testMagic, CmdPing, nil)
	bin.LittleEndian.Order().PutUint32(oversize[16:20], MaxPayloadSize+1)

	tests := []struct {
		name string
		bs   []byte
		want error
	}{
		{"short payload", ping[:len(ping)-3], bin.ErrSizeMismatch},
		{"missing payload", ping[:HeaderSize], bin.ErrSizeMismatch},
		{"short header", ping[:10], bin.ErrSizeMismatch},
		{"bad magic", append([]byte{0xf9, 0xbe, 0xb4, 0xd9}, ping[MagicSize:]...), ErrInvalidMagic},
		{"too large", oversize, ErrPayloadTooLarge},
		{"trailing payload", frame(t, testMagic, CmdPing, make([]byte, 9)), ErrMalformedPayload},
		{"truncated payload", frame(t, testMagic, CmdPing, make([]byte, 4)), ErrMalformedPayload},
		{"unknown command", frame(t, testMagic, "sendheaders", nil), ErrUnknownMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage(bytes.NewReader(tt.bs), testMagic)
			assert.Equal(t, tt.want, errors.Cause(err))
		})
	}
}

func TestUnknownMessageIsConsumed(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(frame(t, testMagic, "feefilter", bin.Uint32Bytes(1000)))
	_, err := WriteMessage(&stream, testMagic, &Pong{Nonce: 5})
	require.NoError(t, err)

	nm, err := DecodeMessage(&stream, testMagic)
	assert.Equal(t, ErrUnknownMessage, errors.Cause(err))
	assert.Equal(t, "feefilter", nm.Header.Command)
	assert.Nil(t, nm.Payload)

	nm, err = DecodeMessage(&stream, testMagic)
	require.NoError(t, err)
	assert.Equal(t, &Pong{Nonce: 5}, nm.Payload)
}

func TestEncodeInvalidCommand(t *testing.T) {
	h := &MessageHeader{Command: "averyveryverylongcommand"}
	_, err := h.WriteTo(&bytes.Buffer{})
	assert.Equal(t, ErrInvalidCommand, errors.Cause(err))

	_, err = EncodeMessage(testMagic, &Addr{Addresses: make([]*TimedNetAddress, MaxAddrPerMessage+1)})
	assert.Equal(t, ErrTooManyAddresses, errors.Cause(err))
}

func TestIsHandshake(t *testing.T) {
	assert.True(t, IsHandshake(&Version{}))
	assert.True(t, IsHandshake(&Verack{}))
	assert.False(t, IsHandshake(&Ping{}))
	assert.False(t, IsHandshake(&TxMessage{}))
}
