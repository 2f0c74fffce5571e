package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitOfWork groups the repositories touched by one request and owns the
// transaction their reads and writes share.
type UnitOfWork interface {
	Users() UserRepository
	Photos() PhotoRepository
	Tags() TagRepository
	PhotoTags() PhotoTagRepository
	Roles() RoleRepository
	Likes() LikeRepository
	Messages() MessageRepository

	// Run opens a transaction and calls fn with a context bound to it.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Run(ctx context.Context, fn func(ctx context.Context, work Work) error) error
}

// Work is the change set of a single Run. Changes are applied in the order
// they were registered when Complete is called.
type Work interface {
	Add(entities ...any)
	Update(entities ...any)
	Remove(entities ...any)
	HasChanges() bool
	// Complete flushes pending changes and reports whether any row changed
	Complete(ctx context.Context) (bool, error)
}

type changeKind int

const (
	changeAdd changeKind = iota
	changeUpdate
	changeRemove
)

type change struct {
	kind   changeKind
	entity any
}

// GormUnitOfWork implements UnitOfWork on gorm
type GormUnitOfWork struct {
	db        *gorm.DB
	users     UserRepository
	photos    PhotoRepository
	tags      TagRepository
	photoTags PhotoTagRepository
	roles     RoleRepository
	likes     LikeRepository
	messages  MessageRepository
}

// NewUnitOfWork creates a unit of work with gorm backed repositories
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &GormUnitOfWork{
		db:        db,
		users:     NewUserRepository(db),
		photos:    NewPhotoRepository(db),
		tags:      NewTagRepository(db),
		photoTags: NewPhotoTagRepository(db),
		roles:     NewRoleRepository(db),
		likes:     NewLikeRepository(db),
		messages:  NewMessageRepository(db),
	}
}

func (u *GormUnitOfWork) Users() UserRepository         { return u.users }
func (u *GormUnitOfWork) Photos() PhotoRepository       { return u.photos }
func (u *GormUnitOfWork) Tags() TagRepository           { return u.tags }
func (u *GormUnitOfWork) PhotoTags() PhotoTagRepository { return u.photoTags }
func (u *GormUnitOfWork) Roles() RoleRepository         { return u.roles }
func (u *GormUnitOfWork) Likes() LikeRepository         { return u.likes }
func (u *GormUnitOfWork) Messages() MessageRepository   { return u.messages }

// Run executes fn inside a database transaction
func (u *GormUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, work Work) error) error {
	return WithTransaction(ctx, u.db, func(txCtx context.Context) error {
		tx, _ := txCtx.Value(TxContextKey).(*gorm.DB)
		return fn(txCtx, &gormWork{tx: tx})
	})
}

type gormWork struct {
	tx      *gorm.DB
	changes []change
}

func (w *gormWork) track(kind changeKind, entities []any) {
	for _, e := range entities {
		w.changes = append(w.changes, change{kind: kind, entity: e})
	}
}

func (w *gormWork) Add(entities ...any)    { w.track(changeAdd, entities) }
func (w *gormWork) Update(entities ...any) { w.track(changeUpdate, entities) }
func (w *gormWork) Remove(entities ...any) { w.track(changeRemove, entities) }
func (w *gormWork) HasChanges() bool       { return len(w.changes) > 0 }

func (w *gormWork) Complete(ctx context.Context) (bool, error) {
	db := w.tx.WithContext(ctx)

	var affected int64
	for _, c := range w.changes {
		var res *gorm.DB
		switch c.kind {
		case changeAdd:
			res = db.Omit(clause.Associations).Create(c.entity)
		case changeUpdate:
			res = db.Model(c.entity).Select("*").Omit(clause.Associations).Updates(c.entity)
		case changeRemove:
			res = db.Delete(c.entity)
		}
		if res.Error != nil {
			return false, fmt.Errorf("failed to apply change to %T: %w", c.entity, res.Error)
		}
		affected += res.RowsAffected
	}
	w.changes = w.changes[:0]

	return affected > 0, nil
}
