package navigator

import (
	"golang.org/x/sync/errgroup"

	"vfsnav/internal/constants"
	"vfsnav/internal/fileinfo"
	"vfsnav/internal/task"
)

// probeLinks resolves symbolic links of SFTP rows in the background. Rows
// of other schemes only advance the progress. It returns once every row is
// done or tc is stopped, and then stops tc itself.
func (e *Engine) probeLinks(epoch uint64, tc *task.Context, rows []fileinfo.FileRef) {
	ctx, cancel := tc.Link(e.ctx)
	defer cancel()

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		tc.Poll(ctx, e.pollInterval, func(p task.Progress) bool {
			e.ui.Post(func() {
				if e.isCurrent(epoch) {
					e.ui.UpdateProgress(p)
				}
			})
			return true
		})
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.LinkProbeConcurrency)
	links := 0
	for _, r := range rows {
		if tc.Stopped() {
			break
		}
		if r.Scheme != fileinfo.SchemeSFTP || !r.Symlink {
			tc.Advance(1)
			continue
		}
		links++
		g.Go(func() error {
			defer tc.Advance(1)
			if gctx.Err() != nil {
				return nil
			}
			resolved, err := e.fs.ResolveLink(gctx, r)
			if err != nil {
				e.debugPrint("navigator: link %s: %v", r.FriendlyURL, err)
				return nil
			}
			e.ui.Post(func() {
				if !e.isCurrent(epoch) || !e.model.Replace(resolved) {
					return
				}
				if u, ok := e.ui.(RowsUpdater); ok {
					u.OnRowsUpdated(e.model.View())
				}
			})
			return nil
		})
	}
	_ = g.Wait()

	e.debugPrint("navigator: probed %d links, stopped=%v", links, tc.Stopped())
	tc.SetStop(true)
	<-pollDone
}
