// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"bytes"

	"github.com/luxfi/hybridsync/model"
)

// mergeLwwRegister implements LwwRegister and the "None" fallback
// dispatch: the HLC tuple already totally orders (physical_ms, counter,
// node_id), so an exact HLC tie is only possible when both replicas
// independently produced identical clocks, at which point the raw
// value bytes break the tie deterministically.
func mergeLwwRegister(local, remote []byte, localHLC, remoteHLC model.HybridTimestamp) ([]byte, error) {
	switch localHLC.Compare(remoteHLC) {
	case 1:
		return local, nil
	case -1:
		return remote, nil
	default:
		if bytes.Compare(local, remote) >= 0 {
			return local, nil
		}
		return remote, nil
	}
}
