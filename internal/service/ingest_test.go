package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"ImmichDrop/config"
	"ImmichDrop/internal/hub"
	"ImmichDrop/internal/repo"
	"ImmichDrop/model"
)

type fakeStore struct {
	mu          sync.Mutex
	bulkCalls   int
	uploadCalls int
	bulkResult  map[string]BulkResult
	uploadReply *UploadReply
	uploadErr   error
	progress    []int
	resolved    []string
	albumAdds   []string
}

func (f *fakeStore) Upload(ctx context.Context, in *UploadInput) (*UploadReply, error) {
	f.mu.Lock()
	f.uploadCalls++
	f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	for _, pct := range f.progress {
		if in.Progress != nil {
			in.Progress(pct)
		}
	}
	if f.uploadReply != nil {
		return f.uploadReply, nil
	}
	return &UploadReply{AssetID: "asset-1"}, nil
}

func (f *fakeStore) BulkCheck(ctx context.Context, checks []AssetCheck, auth *Auth) (map[string]BulkResult, error) {
	f.mu.Lock()
	f.bulkCalls++
	f.mu.Unlock()
	if f.bulkResult == nil {
		return map[string]BulkResult{}, nil
	}
	return f.bulkResult, nil
}

func (f *fakeStore) ResolveOrCreateAlbum(ctx context.Context, name string, auth *Auth) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, name)
	return "album-" + name, nil
}

func (f *fakeStore) AddToAlbum(ctx context.Context, assetID, albumID string, auth *Auth) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albumAdds = append(f.albumAdds, albumID)
	return true
}

func (f *fakeStore) Ping(context.Context) bool                          { return true }
func (f *fakeStore) Login(context.Context, string, string) (*LoginReply, error) { return nil, nil }
func (f *fakeStore) ListAlbums(context.Context, *Auth) ([]Album, error) { return nil, nil }
func (f *fakeStore) CreateAlbum(context.Context, string, *Auth) (*Album, error) {
	return nil, nil
}
func (f *fakeStore) ResetAlbumCache() {}

type recordingNotifier struct {
	mu     sync.Mutex
	events []hub.Event
}

func (r *recordingNotifier) Publish(sessionID string, ev hub.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) terminal() []hub.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []hub.Event
	for _, ev := range r.events {
		switch ev.Status {
		case hub.StatusDone, hub.StatusDuplicate, hub.StatusError:
			out = append(out, ev)
		}
	}
	return out
}

func newIngestInput(data []byte, name string, notify Notifier) *IngestInput {
	return &IngestInput{
		Data:               data,
		Filename:           name,
		LastModifiedMillis: 1700000000000,
		SessionID:          "sess",
		ItemID:             "item-1",
		Notify:             notify,
	}
}

func TestIngestHelloworld(t *testing.T) {
	setupDB(t)
	store := &fakeStore{progress: []int{25, 50, 100}}
	Remote = store
	rec := &recordingNotifier{}

	out := Ingest(context.Background(), newIngestInput([]byte("helloworld"), "hello.txt", rec))
	if out.Status != StatusSuccess || out.AssetID != "asset-1" {
		t.Fatalf("outcome %+v", out)
	}
	if store.bulkCalls != 1 || store.uploadCalls != 1 {
		t.Fatalf("remote calls: bulk=%d upload=%d, want 1/1", store.bulkCalls, store.uploadCalls)
	}

	// checking(2) first, then uploading from 0, then the terminal done
	if len(rec.events) < 3 {
		t.Fatalf("too few events: %+v", rec.events)
	}
	first := rec.events[0]
	if first.Status != hub.StatusChecking || first.Progress != 2 {
		t.Fatalf("first event %+v, want checking(2)", first)
	}
	if rec.events[1].Status != hub.StatusUploading || rec.events[1].Progress != 0 {
		t.Fatalf("second event %+v, want uploading(0)", rec.events[1])
	}
	last := rec.events[len(rec.events)-1]
	if last.Status != hub.StatusDone || last.Progress != 100 {
		t.Fatalf("last event %+v, want done(100)", last)
	}
	if last.ResponseID != "asset-1" {
		t.Fatalf("terminal event carries response id %q, want asset-1", last.ResponseID)
	}

	// uploading progress is monotone and there is exactly one terminal
	prev := -1
	for _, ev := range rec.events {
		if ev.Status == hub.StatusUploading {
			if ev.Progress < prev {
				t.Fatalf("progress went backwards: %+v", rec.events)
			}
			prev = ev.Progress
		}
	}
	if n := len(rec.terminal()); n != 1 {
		t.Fatalf("%d terminal events, want 1", n)
	}

	var count int64
	repo.Db.Model(&model.UploadRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("%d ledger rows, want 1", count)
	}
}

func TestIngestAuditsUploadsWithoutInvite(t *testing.T) {
	setupDB(t)
	Remote = &fakeStore{}

	out := Ingest(context.Background(), newIngestInput([]byte("anonymous upload"), "anon.jpg", &recordingNotifier{}))
	if out.Status != StatusSuccess {
		t.Fatalf("outcome %+v", out)
	}

	var events []model.UploadEvent
	if err := repo.Db.Find(&events).Error; err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("non-invite upload wrote %d audit rows, want 1", len(events))
	}
	if events[0].Token != "" {
		t.Fatalf("non-invite audit row carries token %q, want empty", events[0].Token)
	}
	if events[0].Filename != "anon.jpg" || events[0].RemoteAssetID != "asset-1" {
		t.Fatalf("audit row %+v", events[0])
	}
}

func TestIngestLocalDuplicateSkipsRemote(t *testing.T) {
	setupDB(t)
	store := &fakeStore{}
	Remote = store
	data := []byte("helloworld")
	InsertUploadRecord(context.Background(), &model.UploadRecord{
		Checksum: Checksum(data), Filename: "hello.txt", Size: int64(len(data)), RemoteAssetID: "known",
	})

	rec := &recordingNotifier{}
	out := Ingest(context.Background(), newIngestInput(data, "hello.txt", rec))
	if out.Status != StatusDuplicate || out.AssetID != "known" {
		t.Fatalf("outcome %+v", out)
	}
	if store.bulkCalls != 0 || store.uploadCalls != 0 {
		t.Fatalf("local duplicate made remote calls: bulk=%d upload=%d", store.bulkCalls, store.uploadCalls)
	}
	terminal := rec.terminal()
	if len(terminal) != 1 || terminal[0].Status != hub.StatusDuplicate {
		t.Fatalf("terminal events %+v", terminal)
	}
	if terminal[0].ResponseID != "known" {
		t.Fatalf("duplicate event response id %q, want the ledger asset id", terminal[0].ResponseID)
	}
}

func TestIngestIdempotentResubmission(t *testing.T) {
	setupDB(t)
	store := &fakeStore{}
	Remote = store
	data := []byte("same bytes twice")

	first := Ingest(context.Background(), newIngestInput(data, "a.bin", &recordingNotifier{}))
	if first.Status != StatusSuccess {
		t.Fatalf("first: %+v", first)
	}
	second := Ingest(context.Background(), newIngestInput(data, "a.bin", &recordingNotifier{}))
	if second.Status != StatusDuplicate {
		t.Fatalf("second: %+v", second)
	}
	if store.uploadCalls != 1 {
		t.Fatalf("upload called %d times, want 1", store.uploadCalls)
	}
	var count int64
	repo.Db.Model(&model.UploadRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("%d ledger rows, want 1", count)
	}
}

func TestIngestRemoteDuplicateRecordedLocally(t *testing.T) {
	setupDB(t)
	data := []byte("remote dup")
	deviceAssetID := DeviceAssetID("r.bin", 1700000000000, int64(len(data)))
	store := &fakeStore{bulkResult: map[string]BulkResult{
		deviceAssetID: {Action: "reject", Reason: "duplicate", AssetID: "remote-7"},
	}}
	Remote = store

	out := Ingest(context.Background(), newIngestInput(data, "r.bin", &recordingNotifier{}))
	if out.Status != StatusDuplicate || out.AssetID != "remote-7" {
		t.Fatalf("outcome %+v", out)
	}
	if store.uploadCalls != 0 {
		t.Fatal("bulk-check duplicate still uploaded")
	}
	// the ledger learned the checksum so the next attempt stays local
	rec, err := LookupByChecksum(context.Background(), Checksum(data))
	if err != nil || rec == nil {
		t.Fatalf("ledger row missing: %v", err)
	}
}

func TestIngestTransportFailureRefundsInvite(t *testing.T) {
	setupDB(t)
	store := &fakeStore{uploadErr: &RemoteError{Status: 500, Message: "boom"}}
	Remote = store
	seedInvite(t, &model.Invite{Token: "multi", MaxUses: 2})

	in := newIngestInput([]byte("fails"), "f.bin", &recordingNotifier{})
	in.InviteToken = "multi"
	out := Ingest(context.Background(), in)
	if out.Status != StatusError || !strings.Contains(out.Message, "boom") {
		t.Fatalf("outcome %+v", out)
	}

	var inv model.Invite
	repo.Db.Where("token = ?", "multi").First(&inv)
	if inv.UsedCount != 0 {
		t.Fatalf("failed upload burned usage: used_count=%d", inv.UsedCount)
	}
	var count int64
	repo.Db.Model(&model.UploadRecord{}).Count(&count)
	if count != 0 {
		t.Fatal("failed upload wrote to the ledger")
	}
}

func TestIngestInviteRejectionHasNoSideEffects(t *testing.T) {
	setupDB(t)
	store := &fakeStore{}
	Remote = store
	seedInvite(t, &model.Invite{Token: "off", MaxUses: -1, Disabled: true})

	in := newIngestInput([]byte("rejected"), "x.bin", &recordingNotifier{})
	in.InviteToken = "off"
	out := Ingest(context.Background(), in)
	if out.Status != StatusError || out.ReasonCode != ReasonInviteDisabled {
		t.Fatalf("outcome %+v", out)
	}
	if store.bulkCalls != 0 || store.uploadCalls != 0 {
		t.Fatal("rejected upload still reached the remote store")
	}
}

func TestIngestInviteAlbumWinsOverDefault(t *testing.T) {
	setupDB(t)
	store := &fakeStore{}
	Remote = store
	config.AppConfig.AlbumName = "Default Drop"
	seedInvite(t, &model.Invite{Token: "party", MaxUses: -1, AlbumName: "Party"})

	in := newIngestInput([]byte("album routed"), "p.jpg", &recordingNotifier{})
	in.InviteToken = "party"
	out := Ingest(context.Background(), in)
	if out.Status != StatusSuccess {
		t.Fatalf("outcome %+v", out)
	}
	if len(store.resolved) != 1 || store.resolved[0] != "Party" {
		t.Fatalf("resolved albums %v, want invite album only", store.resolved)
	}

	// single upload_event row audited for the invite
	var events int64
	repo.Db.Model(&model.UploadEvent{}).Where("token = ?", "party").Count(&events)
	if events != 1 {
		t.Fatalf("%d audit rows, want 1", events)
	}
}

func TestIngestSingleUseSettledOnSuccess(t *testing.T) {
	setupDB(t)
	Remote = &fakeStore{}
	seedInvite(t, &model.Invite{Token: "once", MaxUses: 1})

	in := newIngestInput([]byte("single use"), "s.jpg", &recordingNotifier{})
	in.InviteToken = "once"
	if out := Ingest(context.Background(), in); out.Status != StatusSuccess {
		t.Fatalf("outcome %+v", out)
	}

	var inv model.Invite
	repo.Db.Where("token = ?", "once").First(&inv)
	if !inv.Claimed || inv.UsedCount != 1 || inv.ClaimedBySession != "sess" {
		t.Fatalf("invite after success: %+v", inv)
	}
}
