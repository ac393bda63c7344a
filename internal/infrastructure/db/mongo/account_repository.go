package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

const accountsCollection = "accounts"

// AccountRepository implements ports.AccountRepository on MongoDB.
type AccountRepository struct {
	coll *mongo.Collection
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountsCollection)}
}

type mongoAccount struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Email               string             `bson:"email"`
	FullName            string             `bson:"full_name"`
	PasswordHash        string             `bson:"password_hash"`
	Role                string             `bson:"role"`
	FailedLoginCount    int                `bson:"failed_login_count"`
	LockedUntil         *time.Time         `bson:"locked_until,omitempty"`
	PasswordChangedAt   time.Time          `bson:"password_changed_at"`
	ResetTokenHash      string             `bson:"reset_token_hash,omitempty"`
	ResetTokenExpiresAt *time.Time         `bson:"reset_token_expires_at,omitempty"`
	CreatedAt           time.Time          `bson:"created_at"`
	UpdatedAt           time.Time          `bson:"updated_at"`
}

// EnsureIndexes creates the unique email index the signup race relies on and
// the sparse lookup index for reset digests.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "reset_token_hash", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_token_hash"),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure account indexes: %w", err)
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	doc := toMongoAccount(account)
	doc.ID = primitive.NilObjectID

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert account: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.Account, error) {
	if tokenHash == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": bson.M{"$gt": now.UTC()},
	})
}

func (r *AccountRepository) UpdateLoginState(ctx context.Context, id string, state domain.LoginState) error {
	set := bson.M{
		"failed_login_count": state.FailedLoginCount,
		"updated_at":         time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if state.LockedUntil != nil {
		set["locked_until"] = state.LockedUntil.UTC()
	} else {
		update["$unset"] = bson.M{"locked_until": ""}
	}
	return r.updateByID(ctx, id, nil, update, domain.ErrAccountNotFound)
}

func (r *AccountRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": expiresAt.UTC(),
		"updated_at":             time.Now().UTC(),
	}}
	return r.updateByID(ctx, id, nil, update, domain.ErrAccountNotFound)
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	return r.updateByID(ctx, id, nil, passwordUpdate(passwordHash, changedAt), domain.ErrAccountNotFound)
}

func (r *AccountRepository) ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, changedAt, now time.Time) error {
	guard := bson.M{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": bson.M{"$gt": now.UTC()},
	}
	return r.updateByID(ctx, id, guard, passwordUpdate(passwordHash, changedAt), domain.ErrResetTokenInvalid)
}

// passwordUpdate replaces the hash and clears both reset fields in one write.
func passwordUpdate(passwordHash string, changedAt time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"password_hash":       passwordHash,
			"password_changed_at": changedAt.UTC(),
			"updated_at":          time.Now().UTC(),
		},
		"$unset": bson.M{
			"reset_token_hash":       "",
			"reset_token_expires_at": "",
		},
	}
}

// updateByID applies update to the account with id, optionally narrowed by
// guard. notMatched is returned when no document satisfies the filter.
func (r *AccountRepository) updateByID(ctx context.Context, id string, guard bson.M, update bson.M, notMatched error) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notMatched
	}

	filter := bson.M{"_id": oid}
	for k, v := range guard {
		filter[k] = v
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update account %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return notMatched
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func toMongoAccount(a *domain.Account) mongoAccount {
	doc := mongoAccount{
		Email:             a.Email,
		FullName:          a.FullName,
		PasswordHash:      a.PasswordHash,
		Role:              string(a.Role),
		FailedLoginCount:  a.FailedLoginCount,
		LockedUntil:       utcPtr(a.LockedUntil),
		PasswordChangedAt: a.PasswordChangedAt.UTC(),
		CreatedAt:         a.CreatedAt.UTC(),
		UpdatedAt:         a.UpdatedAt.UTC(),
	}
	if a.ResetTokenHash != "" && a.ResetTokenExpiresAt != nil {
		doc.ResetTokenHash = a.ResetTokenHash
		doc.ResetTokenExpiresAt = utcPtr(a.ResetTokenExpiresAt)
	}
	if oid, err := primitive.ObjectIDFromHex(a.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (m mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:                  m.ID.Hex(),
		Email:               m.Email,
		FullName:            m.FullName,
		PasswordHash:        m.PasswordHash,
		Role:                domain.Role(m.Role),
		FailedLoginCount:    m.FailedLoginCount,
		LockedUntil:         utcPtr(m.LockedUntil),
		PasswordChangedAt:   m.PasswordChangedAt.UTC(),
		ResetTokenHash:      m.ResetTokenHash,
		ResetTokenExpiresAt: utcPtr(m.ResetTokenExpiresAt),
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
