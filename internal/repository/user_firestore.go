package repository

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// userDocument keeps the profile field names of the usuarios collection.
type userDocument struct {
	FirstName      string    `firestore:"Nombre"`
	LastName       string    `firestore:"Apellidos"`
	NationalID     string    `firestore:"Cedula"`
	Extension      string    `firestore:"Extension"`
	Department     string    `firestore:"Departamento"`
	Role           string    `firestore:"TipoUsuario"`
	Email          string    `firestore:"Correo"`
	AlternateEmail string    `firestore:"CorreoPersonal"`
	PasswordHash   string    `firestore:"passwordHash"`
	CreatedAt      time.Time `firestore:"FechaRegistro,serverTimestamp"`
	UpdatedAt      time.Time `firestore:"actualizado,serverTimestamp"`
}

// FirestoreUserRepository stores accounts in the usuarios collection.
type FirestoreUserRepository struct {
	client *firestore.Client
	users  string
}

// NewFirestoreUserRepository builds the repository.
func NewFirestoreUserRepository(client *firestore.Client, collection string) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client, users: collection}
}

func (r *FirestoreUserRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.users)
}

// Create inserts the profile after checking email uniqueness in the same transaction.
func (r *FirestoreUserRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	ref := r.collection().Doc(user.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(r.byEmail(user.Email)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrDuplicate
		}
		return tx.Create(ref, toUserDocument(user))
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		return mapFirestoreError(err)
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *FirestoreUserRepository) Update(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	ref := r.collection().Doc(user.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc userDocument
		if err := current.DataTo(&doc); err != nil {
			return err
		}
		if domain.NormalizeEmail(doc.Email) != user.Email {
			taken, err := tx.Documents(r.byEmail(user.Email)).GetAll()
			if err != nil {
				return err
			}
			if len(taken) > 0 {
				return ErrDuplicate
			}
		}
		next := toUserDocument(user)
		next.CreatedAt = doc.CreatedAt
		return tx.Set(ref, next)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		return mapFirestoreError(err)
	}
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *FirestoreUserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Delete(ctx, firestore.Exists)
	return mapFirestoreError(err)
}

func (r *FirestoreUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	return fromUserSnapshot(snap)
}

func (r *FirestoreUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	it := r.byEmail(domain.NormalizeEmail(email)).Documents(ctx)
	defer it.Stop()
	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	return fromUserSnapshot(snap)
}

func (r *FirestoreUserRepository) byEmail(email string) firestore.Query {
	return r.collection().Where("Correo", "==", email).Limit(1)
}

func toUserDocument(user *domain.User) userDocument {
	return userDocument{
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		NationalID:     user.NationalID,
		Extension:      user.Extension,
		Department:     user.Department,
		Role:           user.Role.Label(),
		Email:          user.Email,
		AlternateEmail: user.AlternateEmail,
		PasswordHash:   user.PasswordHash,
	}
}

func fromUserSnapshot(snap *firestore.DocumentSnapshot) (*domain.User, error) {
	var doc userDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	role, ok := domain.ParseUserRole(doc.Role)
	if !ok {
		role = domain.UserRoleAdministrative
	}
	updated := doc.UpdatedAt
	if updated.IsZero() {
		updated = snap.UpdateTime
	}
	return &domain.User{
		ID:             snap.Ref.ID,
		FirstName:      doc.FirstName,
		LastName:       doc.LastName,
		NationalID:     doc.NationalID,
		Extension:      doc.Extension,
		Department:     doc.Department,
		Role:           role,
		Email:          doc.Email,
		AlternateEmail: doc.AlternateEmail,
		PasswordHash:   doc.PasswordHash,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      updated,
	}, nil
}
