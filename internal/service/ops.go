package service

// Wire names of the operations, shared by HTTP routes, CLI help, metrics
// labels and scenario files.
const (
	OpAddHouse              = "add_house"
	OpGetHouse              = "get_house"
	OpGetAllHouses          = "get_all_houses"
	OpGetAvailableHouses    = "get_available_houses"
	OpSearchHouses          = "search_houses"
	OpSearchPrice           = "search_price"
	OpSortHouseByName       = "sort_house_by_name"
	OpHouseAvailability     = "house_availability"
	OpGetHouseUpdateHistory = "get_house_update_history"
	OpUpdateHouse           = "update_house"
	OpBuyHouse              = "buy_house"
	OpSetHouseAvailable     = "set_house_availabile"
	OpSetHouseNotAvailable  = "set_house_not_availabile"
	OpSetPrice              = "set_price"
	OpDeleteHouse           = "delete_house"
)

// Operations lists every wire name in declaration order.
var Operations = []string{
	OpAddHouse,
	OpGetHouse,
	OpGetAllHouses,
	OpGetAvailableHouses,
	OpSearchHouses,
	OpSearchPrice,
	OpSortHouseByName,
	OpHouseAvailability,
	OpGetHouseUpdateHistory,
	OpUpdateHouse,
	OpBuyHouse,
	OpSetHouseAvailable,
	OpSetHouseNotAvailable,
	OpSetPrice,
	OpDeleteHouse,
}
