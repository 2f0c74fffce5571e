package businessflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
	"github.com/amirphl/photo-moderation/utils"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the database
type memStore struct {
	nextID    uint
	users     map[uint]*models.User
	photos    map[uint]*models.Photo
	tags      map[uint]*models.Tag
	photoTags map[[2]uint]*models.PhotoTag
	likes     map[[2]uint]*models.Like
	messages  map[uint]*models.Message
}

func newMemStore() *memStore {
	return &memStore{
		nextID:    100,
		users:     map[uint]*models.User{},
		photos:    map[uint]*models.Photo{},
		tags:      map[uint]*models.Tag{},
		photoTags: map[[2]uint]*models.PhotoTag{},
		likes:     map[[2]uint]*models.Like{},
		messages:  map[uint]*models.Message{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(username string) *models.User {
	u := &models.User{ID: s.id(), Username: username, KnownAs: username}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addPhoto(userID uint, approved, main bool, publicID string) *models.Photo {
	p := &models.Photo{
		ID:         s.id(),
		URL:        "https://cdn.example/" + publicID,
		IsApproved: approved,
		IsMain:     main,
		UserID:     userID,
		CreatedAt:  utils.UTCNow(),
	}
	if publicID != "" {
		p.PublicID = utils.ToPtr(publicID)
	}
	s.photos[p.ID] = p
	return p
}

func (s *memStore) addTag(name string) *models.Tag {
	t := &models.Tag{ID: s.id(), Name: name, CreatedAt: utils.UTCNow()}
	_ = t.BeforeCreate(nil)
	s.tags[t.ID] = t
	return t
}

func (s *memStore) tagPhoto(photoID, tagID uint, by string) {
	s.photoTags[[2]uint{photoID, tagID}] = &models.PhotoTag{PhotoID: photoID, TagID: tagID, CreatedBy: utils.ToPtr(by)}
}

func (s *memStore) sortedPhotoIDs() []uint {
	ids := make([]uint, 0, len(s.photos))
	for id := range s.photos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *memStore) userCopy(u *models.User) *models.User {
	cp := *u
	cp.Photos = nil
	for _, id := range s.sortedPhotoIDs() {
		if p := s.photos[id]; p.UserID == u.ID && p.IsApproved {
			cp.Photos = append(cp.Photos, *p)
		}
	}
	return &cp
}

func (s *memStore) photoWithTags(p *models.Photo) *models.Photo {
	cp := *p
	cp.PhotoTags = nil
	for key, pt := range s.photoTags {
		if key[0] != p.ID {
			continue
		}
		ptCopy := *pt
		if t, ok := s.tags[pt.TagID]; ok {
			tagCopy := *t
			ptCopy.Tag = &tagCopy
		}
		cp.PhotoTags = append(cp.PhotoTags, ptCopy)
	}
	sort.Slice(cp.PhotoTags, func(i, j int) bool { return cp.PhotoTags[i].TagID < cp.PhotoTags[j].TagID })
	return &cp
}

func (s *memStore) tagNamesOf(photoID uint) []string {
	p := s.photoWithTags(s.photos[photoID])
	return tagNames(p)
}

// fakeUnitOfWork implements repository.UnitOfWork over a memStore
type fakeUnitOfWork struct {
	s *memStore

	// forceComplete overrides the result Complete reports
	forceComplete *bool
	completeErr   error

	// onLock runs when a row lock is granted, standing in for a transaction that committed while we waited
	onLock func()

	runs        int
	completions int
	locks       int
}

func newFakeUnitOfWork(s *memStore) *fakeUnitOfWork {
	return &fakeUnitOfWork{s: s}
}

func (u *fakeUnitOfWork) Users() repository.UserRepository         { return &fakeUserRepo{u: u} }
func (u *fakeUnitOfWork) Photos() repository.PhotoRepository       { return &fakePhotoRepo{s: u.s} }
func (u *fakeUnitOfWork) Tags() repository.TagRepository           { return &fakeTagRepo{s: u.s} }
func (u *fakeUnitOfWork) PhotoTags() repository.PhotoTagRepository { return &fakePhotoTagRepo{s: u.s} }
func (u *fakeUnitOfWork) Roles() repository.RoleRepository         { return nil }
func (u *fakeUnitOfWork) Likes() repository.LikeRepository         { return &fakeLikeRepo{s: u.s} }
func (u *fakeUnitOfWork) Messages() repository.MessageRepository   { return &fakeMessageRepo{s: u.s} }

func (u *fakeUnitOfWork) lock() {
	u.locks++
	if u.onLock != nil {
		u.onLock()
	}
}

func (u *fakeUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, work repository.Work) error) error {
	u.runs++
	return fn(ctx, &fakeWork{u: u})
}

type fakeChange struct {
	kind   string
	entity any
}

type fakeWork struct {
	u       *fakeUnitOfWork
	changes []fakeChange
}

func (w *fakeWork) Add(entities ...any) {
	for _, e := range entities {
		w.changes = append(w.changes, fakeChange{"add", e})
	}
}

func (w *fakeWork) Update(entities ...any) {
	for _, e := range entities {
		w.changes = append(w.changes, fakeChange{"update", e})
	}
}

func (w *fakeWork) Remove(entities ...any) {
	for _, e := range entities {
		w.changes = append(w.changes, fakeChange{"remove", e})
	}
}

func (w *fakeWork) HasChanges() bool { return len(w.changes) > 0 }

func (w *fakeWork) Complete(ctx context.Context) (bool, error) {
	w.u.completions++
	if w.u.completeErr != nil {
		return false, w.u.completeErr
	}
	if w.u.forceComplete != nil {
		return *w.u.forceComplete, nil
	}

	s := w.u.s
	affected := 0
	for _, c := range w.changes {
		switch e := c.entity.(type) {
		case *models.User:
			if c.kind == "add" {
				e.ID = s.id()
				cp := *e
				s.users[e.ID] = &cp
				affected++
			}
		case *models.Photo:
			switch c.kind {
			case "add":
				e.ID = s.id()
				_ = e.BeforeCreate(nil)
				cp := *e
				s.photos[e.ID] = &cp
				affected++
			case "update":
				if _, ok := s.photos[e.ID]; ok {
					cp := *e
					cp.PhotoTags, cp.User = nil, nil
					s.photos[e.ID] = &cp
					affected++
				}
			case "remove":
				if _, ok := s.photos[e.ID]; ok {
					delete(s.photos, e.ID)
					affected++
				}
			}
		case *models.Tag:
			switch c.kind {
			case "add":
				e.ID = s.id()
				e.CreatedAt = utils.UTCNow()
				_ = e.BeforeCreate(nil)
				for _, t := range s.tags {
					if t.NameKey == e.NameKey {
						return false, gorm.ErrDuplicatedKey
					}
				}
				cp := *e
				s.tags[e.ID] = &cp
				affected++
			case "remove":
				if _, ok := s.tags[e.ID]; ok {
					delete(s.tags, e.ID)
					for key := range s.photoTags {
						if key[1] == e.ID {
							delete(s.photoTags, key)
						}
					}
					affected++
				}
			}
		case *models.PhotoTag:
			switch c.kind {
			case "add":
				_ = e.BeforeCreate(nil)
				cp := *e
				cp.Tag, cp.Photo = nil, nil
				s.photoTags[[2]uint{e.PhotoID, e.TagID}] = &cp
				affected++
			case "remove":
				key := [2]uint{e.PhotoID, e.TagID}
				if _, ok := s.photoTags[key]; ok {
					delete(s.photoTags, key)
					affected++
				}
			}
		case *models.Like:
			key := [2]uint{e.SourceUserID, e.TargetUserID}
			switch c.kind {
			case "add":
				cp := *e
				s.likes[key] = &cp
				affected++
			case "remove":
				if _, ok := s.likes[key]; ok {
					delete(s.likes, key)
					affected++
				}
			}
		case *models.Message:
			switch c.kind {
			case "add":
				e.ID = s.id()
				cp := *e
				s.messages[e.ID] = &cp
				affected++
			case "update":
				if _, ok := s.messages[e.ID]; ok {
					cp := *e
					s.messages[e.ID] = &cp
					affected++
				}
			case "remove":
				if _, ok := s.messages[e.ID]; ok {
					delete(s.messages, e.ID)
					affected++
				}
			}
		default:
			return false, errors.New("fake work: unsupported entity")
		}
	}
	w.changes = nil
	return affected > 0, nil
}

type fakeUserRepo struct {
	repository.UserRepository
	u *fakeUnitOfWork
}

func (r *fakeUserRepo) ByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := r.u.s.users[id]; ok {
		return r.u.s.userCopy(u), nil
	}
	return nil, nil
}

func (r *fakeUserRepo) ByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	r.u.lock()
	return r.ByID(ctx, id)
}

func (r *fakeUserRepo) ByUsername(_ context.Context, username string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range r.u.s.users {
		if u.Username == username {
			return r.u.s.userCopy(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ByUsernameForUpdate(ctx context.Context, username string) (*models.User, error) {
	r.u.lock()
	return r.ByUsername(ctx, username)
}

func (r *fakeUserRepo) ListWithRoles(context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.u.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type fakePhotoRepo struct {
	repository.PhotoRepository
	s *memStore
}

func (r *fakePhotoRepo) ByIDIncludingPending(_ context.Context, id uint) (*models.Photo, error) {
	if p, ok := r.s.photos[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakePhotoRepo) ByIDWithTagsIncludingPending(_ context.Context, id uint) (*models.Photo, error) {
	if p, ok := r.s.photos[id]; ok {
		return r.s.photoWithTags(p), nil
	}
	return nil, nil
}

func (r *fakePhotoRepo) MainPhotoByUser(_ context.Context, userID uint) (*models.Photo, error) {
	for _, p := range r.s.photos {
		if p.UserID == userID && p.IsMain {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePhotoRepo) ListPending(context.Context, int, int) ([]*models.Photo, error) {
	var out []*models.Photo
	for _, id := range r.s.sortedPhotoIDs() {
		p := r.s.photos[id]
		if p.IsApproved {
			continue
		}
		cp := *p
		if u, ok := r.s.users[p.UserID]; ok {
			owner := *u
			cp.User = &owner
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePhotoRepo) ListByUserWithTags(_ context.Context, userID uint) ([]*models.Photo, error) {
	var out []*models.Photo
	for _, id := range r.s.sortedPhotoIDs() {
		if p := r.s.photos[id]; p.UserID == userID && p.IsApproved {
			out = append(out, r.s.photoWithTags(p))
		}
	}
	return out, nil
}

type fakeTagRepo struct {
	repository.TagRepository
	s *memStore
}

func (r *fakeTagRepo) ByName(_ context.Context, name string) (*models.Tag, error) {
	for _, t := range r.s.tags {
		if t.Key() == models.TagKey(name) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTagRepo) ListByNames(ctx context.Context, names []string) ([]*models.Tag, error) {
	var out []*models.Tag
	for _, n := range names {
		t, _ := r.ByName(ctx, n)
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTagRepo) ListAll(context.Context) ([]*models.Tag, error) {
	var out []*models.Tag
	for _, t := range r.s.tags {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakePhotoTagRepo struct {
	repository.PhotoTagRepository
	s *memStore
}

func (r *fakePhotoTagRepo) ByKey(_ context.Context, photoID, tagID uint) (*models.PhotoTag, error) {
	if pt, ok := r.s.photoTags[[2]uint{photoID, tagID}]; ok {
		cp := *pt
		return &cp, nil
	}
	return nil, nil
}

func (r *fakePhotoTagRepo) ListByPhoto(_ context.Context, photoID uint) ([]*models.PhotoTag, error) {
	var out []*models.PhotoTag
	for key, pt := range r.s.photoTags {
		if key[0] != photoID {
			continue
		}
		cp := *pt
		cp.Tag = r.s.tags[pt.TagID]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TagID < out[j].TagID })
	return out, nil
}

type fakeLikeRepo struct {
	repository.LikeRepository
	s *memStore
}

func (r *fakeLikeRepo) ByKey(_ context.Context, sourceUserID, targetUserID uint) (*models.Like, error) {
	if l, ok := r.s.likes[[2]uint{sourceUserID, targetUserID}]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeLikeRepo) ListTargetIDs(_ context.Context, sourceUserID uint) ([]uint, error) {
	ids := []uint{}
	for key := range r.s.likes {
		if key[0] == sourceUserID {
			ids = append(ids, key[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeMessageRepo struct {
	repository.MessageRepository
	s *memStore
}

func (r *fakeMessageRepo) ByID(_ context.Context, id uint) (*models.Message, error) {
	if m, ok := r.s.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeMessageRepo) ListThread(_ context.Context, current, other string) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range r.s.messages {
		incoming := m.RecipientUsername == current && m.SenderUsername == other && !m.RecipientDeleted
		outgoing := m.SenderUsername == current && m.RecipientUsername == other && !m.SenderDeleted
		if incoming || outgoing {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAuditRepo struct {
	repository.AuditLogRepository
	mu      sync.Mutex
	entries []*models.AuditLog
	err     error
}

func (r *fakeAuditRepo) Save(_ context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByPhoto(_ context.Context, photoID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.list(func(e *models.AuditLog) bool { return e.PhotoID != nil && *e.PhotoID == photoID }, limit, offset)
}

func (r *fakeAuditRepo) ListByActor(_ context.Context, actorID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.list(func(e *models.AuditLog) bool { return e.ActorID != nil && *e.ActorID == actorID }, limit, offset)
}

// list returns matching entries newest first
func (r *fakeAuditRepo) list(match func(*models.AuditLog) bool, limit, offset int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		if match(r.entries[i]) {
			out = append(out, r.entries[i])
		}
	}
	if offset >= len(out) {
		return []*models.AuditLog{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAuditRepo) actions() []string {
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeReports struct {
	stats []models.PhotoApprovalStat
	names []string
}

func (r *fakeReports) PhotoApprovalStats(context.Context, uint) ([]models.PhotoApprovalStat, error) {
	return r.stats, nil
}

func (r *fakeReports) UsernamesWithoutMainPhoto(context.Context, uint) ([]string, error) {
	return r.names, nil
}

type uploadedAsset struct {
	upload services.AssetUpload
	data   []byte
}

type fakeMediaStore struct {
	deleted   []string
	uploaded  []uploadedAsset
	deleteErr error
	uploadErr error
}

func (m *fakeMediaStore) UploadAsset(_ context.Context, upload services.AssetUpload) (*services.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, err
	}
	upload.Body = bytes.NewReader(data)
	m.uploaded = append(m.uploaded, uploadedAsset{upload: upload, data: data})
	key := services.NewAssetKey(upload.FileName)
	return &services.UploadResult{URL: "https://cdn.example/" + key, AssetID: key}, nil
}

func (m *fakeMediaStore) DeleteAsset(_ context.Context, assetID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, assetID)
	return nil
}

type fakePublisher struct {
	events []services.ModerationEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event services.ModerationEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeTagCache struct {
	tags          []models.Tag
	hit           bool
	sets          int
	invalidations int
}

func (c *fakeTagCache) GetTags(context.Context) ([]models.Tag, bool, error) {
	return c.tags, c.hit, nil
}

func (c *fakeTagCache) SetTags(_ context.Context, tags []models.Tag) error {
	c.tags, c.hit = tags, true
	c.sets++
	return nil
}

func (c *fakeTagCache) Invalidate(context.Context) error {
	c.tags, c.hit = nil, false
	c.invalidations++
	return nil
}
