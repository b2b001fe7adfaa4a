package handlers

// HandlerBundle groups all endpoint handlers into one struct for route
// registration.
type HandlerBundle struct {
	Collection *CollectionHandler
	Earnings   *EarningsHandler
	Centers    *CenterHandler
	Storage    *StorageHandler
}
