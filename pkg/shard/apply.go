package shard

// ApplyReconcileResult integrates a completed (or failed) reconcile attempt
// back into the shard. It is invoked by the control loop on receipt of a
// message from the result channel - never from inside a background task.
func (t *TenantShard) ApplyReconcileResult(result ReconcileResult) {
	if result.Generation > t.Generation {
		t.Generation = result.Generation
	}

	if result.Err == nil {
		for node, loc := range result.Observed.Locations {
			t.Observed.Locations[node] = loc
		}
		for node := range t.Observed.Locations {
			if _, stillPresent := result.Observed.Locations[node]; !stillPresent {
				delete(t.Observed.Locations, node)
			}
		}
		t.doneSeq.Advance(result.Sequence)
	} else {
		for node, loc := range result.Observed.Locations {
			t.Observed.Locations[node] = loc
		}
		t.lastErr.Set(result.Err.Error())
		t.errorSeq.Advance(result.Sequence)
	}

	if t.reconciler != nil && t.reconciler.sequence == result.Sequence {
		t.reconciler = nil
	}
}
