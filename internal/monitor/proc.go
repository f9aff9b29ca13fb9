package monitor

import (
	"github.com/shirou/gopsutil/v3/process"
)

// SystemSampler opens real process handles via gopsutil.
type SystemSampler struct{}

func NewSystemSampler() *SystemSampler {
	return &SystemSampler{}
}

func (SystemSampler) Open(pid int) (Process, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}
	return &systemProcess{p: p}, nil
}

type systemProcess struct {
	p *process.Process
}

// Percent returns the CPU usage since the previous call on the same
// handle. gopsutil keeps the last sample internally when interval is
// zero.
func (s *systemProcess) Percent() (float64, error) {
	return s.p.Percent(0)
}
