package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"
	"campusrides/pkg/cache"
	"campusrides/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore backs every fake repository. Transactions are serialized and
// roll back by restoring a snapshot taken when they started.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	rides         map[primitive.ObjectID]models.Ride
	bookings      map[primitive.ObjectID]models.Booking
	notifications map[primitive.ObjectID]models.Notification
	chats         map[primitive.ObjectID]models.Chat
	messages      map[primitive.ObjectID]models.Message
	cars          map[primitive.ObjectID]models.Car
	users         map[string]models.User

	// notificationErr makes every notification insert fail.
	notificationErr error
	transactions    int
	inTx            bool
	// committedInvalidations lists ride cache drops made outside a transaction.
	committedInvalidations []primitive.ObjectID
}

func newMemStore() *memStore {
	return &memStore{
		rides:         map[primitive.ObjectID]models.Ride{},
		bookings:      map[primitive.ObjectID]models.Booking{},
		notifications: map[primitive.ObjectID]models.Notification{},
		chats:         map[primitive.ObjectID]models.Chat{},
		messages:      map[primitive.ObjectID]models.Message{},
		cars:          map[primitive.ObjectID]models.Car{},
		users:         map[string]models.User{},
	}
}

type snapshot struct {
	rides         map[primitive.ObjectID]models.Ride
	bookings      map[primitive.ObjectID]models.Booking
	notifications map[primitive.ObjectID]models.Notification
	chats         map[primitive.ObjectID]models.Chat
	messages      map[primitive.ObjectID]models.Message
	cars          map[primitive.ObjectID]models.Car
	users         map[string]models.User
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats := make(map[primitive.ObjectID]models.Chat, len(s.chats))
	for id, c := range s.chats {
		c.UnreadCounts = copyMap(c.UnreadCounts)
		chats[id] = c
	}
	return snapshot{
		rides:         copyMap(s.rides),
		bookings:      copyMap(s.bookings),
		notifications: copyMap(s.notifications),
		chats:         chats,
		messages:      copyMap(s.messages),
		cars:          copyMap(s.cars),
		users:         copyMap(s.users),
	}
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides = snap.rides
	s.bookings = snap.bookings
	s.notifications = snap.notifications
	s.chats = snap.chats
	s.messages = snap.messages
	s.cars = snap.cars
	s.users = snap.users
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.transactions++
	s.inTx = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inTx = false
		s.mu.Unlock()
	}()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func paginate[T any](items []T, params *utils.PaginationParams) []T {
	if params == nil {
		return items
	}
	start := params.GetSkip()
	if start > len(items) {
		return []T{}
	}
	end := start + params.GetLimit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Rides

type fakeRideRepo struct{ s *memStore }

func (r *fakeRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	ride.CreatedAt, ride.UpdatedAt = now, now
	r.s.rides[ride.ID] = *ride
	return nil
}

func (r *fakeRideRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ride, ok := r.s.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &ride, nil
}

func (r *fakeRideRepo) GetByOwnerID(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Ride
	for _, ride := range r.s.rides {
		if ride.OwnerID == ownerID {
			ride := ride
			out = append(out, &ride)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, params), int64(len(out)), nil
}

func (r *fakeRideRepo) Search(ctx context.Context, filter *models.RideSearchFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Ride
	for _, ride := range r.s.rides {
		if ride.PickupLocation != filter.PickupLocation || ride.DestinationLocation != filter.DestinationLocation {
			continue
		}
		allowed := len(filter.Statuses) == 0
		for _, st := range filter.Statuses {
			if ride.Status == st {
				allowed = true
			}
		}
		if !allowed || ride.AvailableSeats < filter.MinSeats {
			continue
		}
		if filter.MaxPrice != nil && ride.PricePerSeat > *filter.MaxPrice {
			continue
		}
		ride := ride
		out = append(out, &ride)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return paginate(out, params), int64(len(out)), nil
}

func (r *fakeRideRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ride, ok := r.s.rides[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	ride.Status = status
	r.s.rides[id] = ride
	return nil
}

func (r *fakeRideRepo) ReserveSeats(ctx context.Context, id primitive.ObjectID, n int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ride, ok := r.s.rides[id]
	if !ok || ride.AvailableSeats < n {
		return interfaces.ErrInsufficientSeats
	}
	ride.AvailableSeats -= n
	r.s.rides[id] = ride
	return nil
}

func (r *fakeRideRepo) ReleaseSeats(ctx context.Context, id primitive.ObjectID, n int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ride, ok := r.s.rides[id]
	if !ok || ride.AvailableSeats+n > ride.Capacity {
		return interfaces.ErrSeatOverflow
	}
	ride.AvailableSeats += n
	r.s.rides[id] = ride
	return nil
}

func (r *fakeRideRepo) InvalidateCache(ctx context.Context, id primitive.ObjectID) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.inTx {
		r.s.committedInvalidations = append(r.s.committedInvalidations, id)
	}
}

// Bookings

type fakeBookingRepo struct{ s *memStore }

func (r *fakeBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.RideID == booking.RideID && b.RiderID == booking.RiderID && b.IsActive() {
			return interfaces.ErrDuplicate
		}
	}
	booking.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	booking.CreatedAt, booking.UpdatedAt = now, now
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &b, nil
}

func (r *fakeBookingRepo) GetByRiderID(ctx context.Context, riderID string, status models.BookingStatus, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.s.bookings {
		if b.RiderID == riderID && (status == "" || b.Status == status) {
			b := b
			out = append(out, &b)
		}
	}
	return paginate(out, params), int64(len(out)), nil
}

func (r *fakeBookingRepo) GetByRideID(ctx context.Context, rideID primitive.ObjectID, status models.BookingStatus) ([]*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Booking{}
	for _, b := range r.s.bookings {
		if b.RideID == rideID && (status == "" || b.Status == status) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt.Before(out[j].BookedAt) })
	return out, nil
}

func (r *fakeBookingRepo) GetActiveByRideAndRider(ctx context.Context, rideID primitive.ObjectID, riderID string) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.RideID == rideID && b.RiderID == riderID && b.IsActive() {
			return &b, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeBookingRepo) HasBooking(ctx context.Context, rideID primitive.ObjectID, riderID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.RideID == rideID && b.RiderID == riderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) MarkCancelled(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || !b.IsActive() {
		return interfaces.ErrBookingNotActive
	}
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &at
	b.UpdatedAt = at
	r.s.bookings[id] = b
	return nil
}

// Notifications

type fakeNotificationRepo struct{ s *memStore }

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.notificationErr != nil {
		return r.s.notificationErr
	}
	n.ID = primitive.NewObjectID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &n, nil
}

func (r *fakeNotificationRepo) GetByUserID(ctx context.Context, userID string, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, params), int64(len(out)), nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id primitive.ObjectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return interfaces.ErrNotFound
	}
	now := time.Now().UTC()
	n.Read, n.ReadAt = true, &now
	r.s.notifications[id] = n
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var modified int64
	now := time.Now().UTC()
	for id, n := range r.s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read, n.ReadAt = true, &now
			r.s.notifications[id] = n
			modified++
		}
	}
	return modified, nil
}

// Chats and messages

type fakeChatRepo struct{ s *memStore }

func (r *fakeChatRepo) FindOrCreateByPair(ctx context.Context, chat *models.Chat) (*models.Chat, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.chats {
		if c.PairKey == chat.PairKey {
			c.UnreadCounts = copyMap(c.UnreadCounts)
			return &c, false, nil
		}
	}
	now := time.Now().UTC()
	created := *chat
	created.ID = primitive.NewObjectID()
	created.UnreadCounts = map[string]int{}
	created.CreatedAt, created.UpdatedAt = now, now
	r.s.chats[created.ID] = created
	out := created
	out.UnreadCounts = map[string]int{}
	return &out, true, nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c.UnreadCounts = copyMap(c.UnreadCounts)
	return &c, nil
}

func (r *fakeChatRepo) GetByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Chat
	for _, c := range r.s.chats {
		if c.HasParticipant(userID) {
			c := c
			c.UnreadCounts = copyMap(c.UnreadCounts)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return paginate(out, params), int64(len(out)), nil
}

func (r *fakeChatRepo) AppendMessage(ctx context.Context, chatID primitive.ObjectID, recipientID, preview string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[chatID]
	if !ok {
		return 0, interfaces.ErrNotFound
	}
	c.UnreadCounts = copyMap(c.UnreadCounts)
	c.MessageSeq++
	c.LastMessage = preview
	c.LastMessageAt = &at
	c.UpdatedAt = at
	c.UnreadCounts[recipientID]++
	r.s.chats[chatID] = c
	return c.MessageSeq, nil
}

func (r *fakeChatRepo) ResetUnread(ctx context.Context, chatID primitive.ObjectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[chatID]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.UnreadCounts = copyMap(c.UnreadCounts)
	c.UnreadCounts[userID] = 0
	r.s.chats[chatID] = c
	return nil
}

type fakeMessageRepo struct{ s *memStore }

func (r *fakeMessageRepo) Create(ctx context.Context, m *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = primitive.NewObjectID()
	r.s.messages[m.ID] = *m
	return nil
}

func (r *fakeMessageRepo) GetByChatID(ctx context.Context, chatID primitive.ObjectID, afterSeq int64, limit int) ([]*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Message{}
	for _, m := range r.s.messages {
		if m.ChatID == chatID && m.Seq > afterSeq {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Cars

type fakeCarRepo struct{ s *memStore }

func (r *fakeCarRepo) Create(ctx context.Context, car *models.Car) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	car.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	car.CreatedAt, car.UpdatedAt = now, now
	r.s.cars[car.ID] = *car
	return nil
}

func (r *fakeCarRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	car, ok := r.s.cars[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	car.Images = append([]string(nil), car.Images...)
	return &car, nil
}

func (r *fakeCarRepo) GetByOwnerID(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Car, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Car
	for _, car := range r.s.cars {
		if car.OwnerID == ownerID {
			car := car
			out = append(out, &car)
		}
	}
	return paginate(out, params), int64(len(out)), nil
}

func (r *fakeCarRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	car, ok := r.s.cars[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			car.Name = v.(string)
		case "model":
			car.Model = v.(string)
		case "license_plate":
			car.LicensePlate = v.(string)
		case "max_capacity":
			car.MaxCapacity = v.(int)
		}
	}
	r.s.cars[id] = car
	return nil
}

func (r *fakeCarRepo) AddImage(ctx context.Context, id primitive.ObjectID, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	car, ok := r.s.cars[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for _, existing := range car.Images {
		if existing == key {
			return nil
		}
	}
	car.Images = append(append([]string(nil), car.Images...), key)
	r.s.cars[id] = car
	return nil
}

// Users

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	u.Devices = append([]models.Device(nil), u.Devices...)
	return &u, nil
}

func (r *fakeUserRepo) Upsert(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	now := time.Now().UTC()
	if !ok {
		u = models.User{ID: id, CreatedAt: now}
	}
	for k, v := range fields {
		switch k {
		case "email":
			u.Email = v.(string)
		case "full_name":
			u.FullName = v.(string)
		case "bio":
			u.Bio = v.(string)
		case "university":
			u.University = v.(string)
		case "location":
			u.Location = v.(string)
		case "profile_picture":
			u.ProfilePicture = v.(string)
		}
	}
	u.UpdatedAt = now
	r.s.users[id] = u
	return &u, nil
}

func (r *fakeUserRepo) SetProfilePicture(ctx context.Context, id, key string) error {
	_, err := r.Upsert(ctx, id, map[string]interface{}{"profile_picture": key})
	return err
}

func (r *fakeUserRepo) GetDevices(ctx context.Context, id string) ([]models.Device, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Devices, nil
}

func (r *fakeUserRepo) AddDevice(ctx context.Context, id string, device models.Device) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for uid, u := range r.s.users {
		kept := u.Devices[:0:0]
		for _, d := range u.Devices {
			if d.Token != device.Token {
				kept = append(kept, d)
			}
		}
		u.Devices = kept
		r.s.users[uid] = u
	}
	u, ok := r.s.users[id]
	if !ok {
		u = models.User{ID: id, CreatedAt: time.Now().UTC()}
	}
	u.Devices = append(u.Devices, device)
	r.s.users[id] = u
	return nil
}

func (r *fakeUserRepo) RemoveDevice(ctx context.Context, id, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	kept := u.Devices[:0:0]
	for _, d := range u.Devices {
		if d.Token != token {
			kept = append(kept, d)
		}
	}
	u.Devices = kept
	r.s.users[id] = u
	return nil
}

// Outbound fakes

type broadcast struct {
	Room string
	Type string
	Data interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
	err    error
}

func (b *fakeBroadcaster) Publish(ctx context.Context, room, eventType string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcast{Room: room, Type: eventType, Data: data})
	return b.err
}

func (b *fakeBroadcaster) find(room, eventType string) []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcast
	for _, e := range b.events {
		if e.Room == room && e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakePush struct {
	mu       sync.Mutex
	sent     []*push.NotificationRequest
	failWith error
	stale    bool
}

func (p *fakePush) Send(ctx context.Context, platform string, req *push.NotificationRequest) (*push.NotificationResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, req)
	if p.failWith != nil {
		return &push.NotificationResponse{Success: false, Unregistered: p.stale}, p.failWith
	}
	return &push.NotificationResponse{Success: true}, nil
}

func (p *fakePush) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

// fakeCache stores JSON like the redis cache does.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

var errInjected = errors.New("injected failure")
