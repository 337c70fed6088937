package manager

import (
	"sort"
	"time"

	"nightingale/internal/backend"
	"nightingale/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		DefaultModel:      m.defaultModel,
		LoadsTotal:        m.loadsTotal.Load(),
		LoadFailuresTotal: m.loadFailuresTotal.Load(),
		LastError:         m.lastErr,
		UptimeSeconds:     int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix:    time.Now().Unix(),
	}
	resp.Instances = make([]types.InstanceStatus, 0, len(m.instances))
	for _, inst := range m.instances {
		st := types.InstanceStatus{
			ModelID:       inst.ID,
			Backend:       inst.Descriptor.BackendName,
			Driver:        inst.Driver,
			State:         "unloaded",
			QueueLen:      len(inst.queueCh),
			Inflight:      len(inst.genCh),
			MaxQueueDepth: cap(inst.queueCh),
		}
		if !inst.LastUsed.IsZero() {
			st.LastUsed = inst.LastUsed.Unix()
		}
		if b := inst.backend.Load(); b != nil {
			st.State = string(b.State())
			st.Loads = b.Loads()
			if err := b.LastError(); err != nil {
				st.LastError = err.Error()
			}
			if b.State() == backend.StateLoaded {
				resp.Ready = true
			}
		}
		resp.Instances = append(resp.Instances, st)
	}
	sort.Slice(resp.Instances, func(i, j int) bool { return resp.Instances[i].ModelID < resp.Instances[j].ModelID })
	return resp
}
