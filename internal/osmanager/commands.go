package osmanager

import (
	"bytes"

	"github.com/aortez/dirtsim/pkg/envelope"
)

// Wire command/response types for the OS-manager's command table (§4.7):
// TrustPeer, UntrustPeer, TrustBundleGet, RemoteCliRun, each carried as
// envelope.Result[T] per the convention internal/server/commands.go
// established.

func resultEncoder[T any](encodeValue func(*envelope.Writer, T)) func(envelope.Result[T]) []byte {
	return func(res envelope.Result[T]) []byte {
		buf := new(bytes.Buffer)
		w := envelope.NewWriter(buf)
		envelope.EncodeResult(w, res, encodeValue)
		return w.Bytes()
	}
}

func encodeBundle(w *envelope.Writer, b PeerTrustBundle) {
	w.WriteString(b.Host)
	w.WriteString(b.SSHUser)
	w.WriteInt32(int32(b.SSHPort))
	w.WriteString(b.HostFingerprintSHA256)
	w.WriteString(b.ClientPubkey)
}

func decodeBundle(r *envelope.Reader) (PeerTrustBundle, error) {
	var b PeerTrustBundle
	var err error
	if b.Host, err = r.ReadString(); err != nil {
		return b, err
	}
	if b.SSHUser, err = r.ReadString(); err != nil {
		return b, err
	}
	port, err := r.ReadInt32()
	if err != nil {
		return b, err
	}
	b.SSHPort = int(port)
	if b.HostFingerprintSHA256, err = r.ReadString(); err != nil {
		return b, err
	}
	if b.ClientPubkey, err = r.ReadString(); err != nil {
		return b, err
	}
	return b, nil
}

type TrustPeerCmd struct{ Bundle PeerTrustBundle }
type AckResp struct{}

func DecodeTrustPeerCmd(b []byte) (TrustPeerCmd, error) {
	r := envelope.NewReader(bytes.NewReader(b))
	bundle, err := decodeBundle(r)
	return TrustPeerCmd{Bundle: bundle}, err
}

func encodeAckValue(w *envelope.Writer, _ AckResp) {}

var EncodeAckResp = resultEncoder(encodeAckValue)

type UntrustPeerCmd struct{ Host string }

func DecodeUntrustPeerCmd(b []byte) (UntrustPeerCmd, error) {
	r := envelope.NewReader(bytes.NewReader(b))
	host, err := r.ReadString()
	return UntrustPeerCmd{Host: host}, err
}

type TrustBundleGetCmd struct{}

func DecodeTrustBundleGetCmd(b []byte) (TrustBundleGetCmd, error) { return TrustBundleGetCmd{}, nil }

type TrustBundleGetResp struct{ Bundle PeerTrustBundle }

var EncodeTrustBundleGetResp = resultEncoder(func(w *envelope.Writer, r TrustBundleGetResp) {
	encodeBundle(w, r.Bundle)
})

type RemoteCliRunCmd struct {
	Host      string
	Argv      []string
	TimeoutMS int64
}

func DecodeRemoteCliRunCmd(b []byte) (RemoteCliRunCmd, error) {
	r := envelope.NewReader(bytes.NewReader(b))
	var c RemoteCliRunCmd
	var err error
	if c.Host, err = r.ReadString(); err != nil {
		return c, err
	}
	if c.Argv, err = envelope.ReadSeq(r, func(r *envelope.Reader) (string, error) { return r.ReadString() }); err != nil {
		return c, err
	}
	if c.TimeoutMS, err = r.ReadInt64(); err != nil {
		return c, err
	}
	return c, nil
}

type RemoteCliRunResp struct {
	ExitCode  int32
	Stdout    []byte
	Stderr    []byte
	ElapsedMS int64
}

var EncodeRemoteCliRunResp = resultEncoder(func(w *envelope.Writer, r RemoteCliRunResp) {
	w.WriteInt32(r.ExitCode)
	w.WriteBytes(r.Stdout)
	w.WriteBytes(r.Stderr)
	w.WriteInt64(r.ElapsedMS)
})
