package netsim

// Engine implements the eight-step per-tick algorithm (MODULE D) over an
// Orchestrator's buffers, tick state, driver, and proxies. It holds no
// state of its own: "given role + frame delta, drive one tick" is the
// entire contract (spec §4.D).
type Engine[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct{}

// Tick drives exactly one tick, in the order fixed by spec §4.D:
// debug pre-record, debug new slot, PreSimTick, advance condition, sync
// continuity, input consumption loop, PostSimTick, debug finalize.
func (Engine[In, Sy, Au]) Tick(o *Orchestrator[In, Sy, Au], params TickParams) {
	debugEnabled := o.Buffers.DebugEnabled()

	// 1. Debug pre-record: stamp the previous debug entry with whichever
	// input keyframe was most recently sent by the sending proxy.
	if debugEnabled {
		if prev, ok := o.Buffers.Debug.Find(o.Buffers.Debug.HeadKeyframe()); ok {
			prev.LastSentInputKeyframe = o.lastSentInputKeyframe
		}
	}

	// 2. Debug new slot.
	o.globalFrameCounter++
	var debugFrame *DebugFrame
	if debugEnabled {
		debugFrame = o.Buffers.Debug.WriteNext()
		*debugFrame = DebugFrame{
			LocalDeltaTime:            SimTimeFromSeconds(params.LocalDeltaTimeSeconds),
			GlobalFrameCounter:        o.globalFrameCounter,
			LastReceivedInputKeyframe: o.Buffers.Input.HeadKeyframe(),
		}
	}

	// 3. PreSimTick.
	proxy := o.proxies.byRole(params.Role)
	proxy.PreSimTick(o, params)
	if params.Role == RoleAutonomousProxy {
		o.lastSentInputKeyframe = o.Buffers.Input.HeadKeyframe()
	}

	// 4. Advance condition: only enter the update section if there is
	// input beyond what Sync has already produced.
	if o.Buffers.Input.HeadKeyframe() > o.Buffers.Sync.HeadKeyframe() {
		// 5. Sync continuity.
		firstRun := !o.Buffers.Sync.Written()
		if firstRun || o.Buffers.Sync.HeadKeyframe() != o.State.LastProcessedInputKeyframe {
			if !firstRun {
				o.Logger.Warn("sync continuity break, reseeding",
					"syncHead", o.Buffers.Sync.HeadKeyframe(),
					"lastProcessed", o.State.LastProcessedInputKeyframe)
			}
			seed := o.Buffers.Sync.ResetNextHeadKeyframe(o.State.LastProcessedInputKeyframe)
			o.Driver.InitSyncState(seed)
			o.State.ResyncStamp(o.State.LastProcessedInputKeyframe)
		}

		// 6. Input consumption loop.
		for k := o.State.LastProcessedInputKeyframe + 1; k <= o.State.MaxAllowedInputKeyframe; k++ {
			in, ok := o.Buffers.Input.Find(k)
			if !ok {
				break // missing intermediate input: end of available input, never a hole to skip
			}
			dt := in.FrameDeltaTime()
			if o.State.RemainingAllowedSimulationTime < dt {
				break // budget exhausted; remaining inputs processed next tick
			}
			prev, ok := o.Buffers.Sync.Find(o.State.LastProcessedInputKeyframe)
			if !ok {
				panic(ErrMissingPriorSync)
			}
			next := o.Buffers.Sync.WriteNext()
			aux := o.auxAt(k)
			o.Sim.Update(o.Driver, dt.Seconds(), in, prev, next, aux)
			if debugEnabled {
				debugFrame.ProcessedKeyframes = append(debugFrame.ProcessedKeyframes, k)
			}
			o.State.IncrementProcessed(dt, k)
			o.Driver.FinalizeFrame(next)
		}
	}

	// 7. PostSimTick. The replay channel records whatever Sync was
	// produced regardless of which role drove the tick.
	proxy.PostSimTick(o, params)
	o.proxies.replay.PostSimTick(o, params)

	// 8. Debug finalize + historic merge.
	if debugEnabled {
		debugFrame.RemainingSimulationTime = o.State.RemainingAllowedSimulationTime
	}
	if o.historic != nil && o.Buffers.Sync.Written() {
		if sy, ok := o.Buffers.Sync.Find(o.Buffers.Sync.HeadKeyframe()); ok {
			*o.historic.WriteNext() = *sy
		}
	}
}
