package wire

import "io"

// WorkerMsgType is the envelope discriminator on the coordinator<->worker
// registration protocol.
type WorkerMsgType uint32

const (
	WorkerRegisterReq WorkerMsgType = 0
	WorkerRegisterRep WorkerMsgType = 1
)

// WorkerRegisterReqMsg carries the placement identity a worker reports at
// startup (§3 PlacementId) plus the IP the coordinator will hand out in
// pipelines.
type WorkerRegisterReqMsg struct {
	PodID, RackID, HostID, IP uint32
}

type WorkerRegisterRepMsg struct {
	ResultCode uint32
}

func WriteWorkerRegisterReq(w io.Writer, m WorkerRegisterReqMsg) error {
	if err := writeU32(w, uint32(WorkerRegisterReq)); err != nil {
		return err
	}
	for _, v := range []uint32{m.PodID, m.RackID, m.HostID, m.IP} {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	return nil
}

func ReadWorkerRegisterReqBody(r io.Reader) (m WorkerRegisterReqMsg, err error) {
	vals := make([]uint32, 4)
	for i := range vals {
		if vals[i], err = readU32(r); err != nil {
			return
		}
	}
	m.PodID, m.RackID, m.HostID, m.IP = vals[0], vals[1], vals[2], vals[3]
	return
}

func WriteWorkerRegisterRep(w io.Writer, m WorkerRegisterRepMsg) error {
	if err := writeU32(w, uint32(WorkerRegisterRep)); err != nil {
		return err
	}
	return writeU32(w, m.ResultCode)
}

func ReadWorkerRegisterRepBody(r io.Reader) (m WorkerRegisterRepMsg, err error) {
	m.ResultCode, err = readU32(r)
	return
}

// ReadWorkerMsgType reads just the envelope discriminator; the caller then
// dispatches to the matching ReadXxxBody.
func ReadWorkerMsgType(r io.Reader) (WorkerMsgType, error) {
	v, err := readU32(r)
	return WorkerMsgType(v), err
}
