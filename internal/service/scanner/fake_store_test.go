package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/signature"
)

type fakePost struct {
	ID      int64
	Type    string
	Status  string
	Date    string
	Content string
}

func publishedPost(id int64, date, content string) fakePost {
	return fakePost{ID: id, Type: model.PostType, Status: model.PostStatusPublish, Date: date, Content: content}
}

const blockContent = `<!-- wp:stylized-anchor-link {"postId":7} /-->`

// fakeStore evaluates the scan predicate in memory and records every call.
type fakeStore struct {
	posts     []fakePost
	matcher   *signature.Matcher
	noStaging bool

	staging     map[string][]int64
	everStaged  []string
	probes      []string
	calls       map[string]int
	fetchSizes  []int
	failFetches int
	failStage   error
	failDrop    error
	dropCtxs    []dropContext
	onStage     func()
}

var _ contracts.ContentStore = (*fakeStore)(nil)

func newFakeStore(posts ...fakePost) *fakeStore {
	return &fakeStore{
		posts:   posts,
		matcher: signature.New("stylized-anchor-link").Matcher(),
		staging: make(map[string][]int64),
		calls:   make(map[string]int),
	}
}

func (f *fakeStore) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeStore) matches(window model.DateWindow) []int64 {
	ids := make([]int64, 0)
	for _, p := range f.posts {
		if p.Type != model.PostType || p.Status != model.PostStatusPublish {
			continue
		}
		if p.Date < window.StartString() || p.Date > window.EndString() {
			continue
		}
		if !f.matcher.Match(p.Content) {
			continue
		}
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func page(ids []int64, offset, limit int) []int64 {
	if offset >= len(ids) {
		return []int64{}
	}
	end := min(offset+limit, len(ids))
	return append([]int64(nil), ids[offset:end]...)
}

func (f *fakeStore) fail() error {
	if f.failFetches > 0 {
		f.failFetches--
		return errors.New("connection reset by peer")
	}
	return nil
}

func (f *fakeStore) ProbeStaging(_ context.Context, name string) error {
	f.calls["probe"]++
	f.probes = append(f.probes, name)
	if f.noStaging {
		return fmt.Errorf("%w: permission denied for schema pg_temp", model.ErrStagingUnsupported)
	}
	return nil
}

func (f *fakeStore) CreateStaging(_ context.Context, name string) error {
	f.calls["create"]++
	if _, ok := f.staging[name]; ok {
		return fmt.Errorf("relation %s already exists", name)
	}
	f.staging[name] = []int64{}
	f.everStaged = append(f.everStaged, name)
	return nil
}

func (f *fakeStore) StageMatches(_ context.Context, name string, window model.DateWindow) error {
	f.calls["stage"]++
	if f.onStage != nil {
		f.onStage()
	}
	if f.failStage != nil {
		return f.failStage
	}
	f.staging[name] = f.matches(window)
	return nil
}

func (f *fakeStore) CountStaged(_ context.Context, name string) (int, error) {
	f.calls["count"]++
	return len(f.staging[name]), nil
}

func (f *fakeStore) FetchStaged(_ context.Context, name string, offset, limit int) ([]int64, error) {
	f.calls["fetch_staged"]++
	f.fetchSizes = append(f.fetchSizes, limit)
	if err := f.fail(); err != nil {
		return nil, err
	}
	ids, ok := f.staging[name]
	if !ok {
		return nil, fmt.Errorf("relation %s does not exist", name)
	}
	return page(ids, offset, limit), nil
}

func (f *fakeStore) DropStaging(ctx context.Context, name string) error {
	f.calls["drop"]++
	deadline, ok := ctx.Deadline()
	f.dropCtxs = append(f.dropCtxs, dropContext{err: ctx.Err(), deadline: deadline, hasDeadline: ok})
	if f.failDrop != nil {
		return f.failDrop
	}
	delete(f.staging, name)
	return nil
}

func (f *fakeStore) FetchMatches(_ context.Context, window model.DateWindow, offset, limit int) ([]int64, error) {
	f.calls["fetch_direct"]++
	f.fetchSizes = append(f.fetchSizes, limit)
	if err := f.fail(); err != nil {
		return nil, err
	}
	return page(f.matches(window), offset, limit), nil
}

// dropContext is the state of the context DropStaging was called with.
type dropContext struct {
	err         error
	deadline    time.Time
	hasDeadline bool
}

type recordingProgress struct {
	events   []model.Progress
	onReport func(p model.Progress)
}

func (r *recordingProgress) Report(p model.Progress) {
	r.events = append(r.events, p)
	if r.onReport != nil {
		r.onReport(p)
	}
}
