package ledger

import (
	"strconv"

	"github.com/pinehill-dev/pinehill/internal/model"
)

// DefaultUnits returns the unit roster seeded for a building layout.
func DefaultUnits(layout string) []model.Unit {
	switch layout {
	case "pinehill":
		return pinehillUnits()
	default:
		return pinehillUnits()
	}
}

func pinehillUnits() []model.Unit {
	oneHalf, twoRoom := "1.5룸", "투룸"
	small, large := "500-50", "500-60"

	unit := func(room int, status model.UnitStatus, roomType, price *string) model.Unit {
		return model.Unit{
			UnitID:      unitID(room),
			RoomNo:      room,
			Floor:       room / 100,
			Status:      status,
			RoomType:    roomType,
			TargetPrice: price,
		}
	}

	return []model.Unit{
		unit(201, model.UnitRented, &oneHalf, &small),
		unit(202, model.UnitRented, nil, nil),
		unit(203, model.UnitRented, nil, nil),
		unit(204, model.UnitLawsuit, nil, nil),
		unit(205, model.UnitRented, &twoRoom, &large),
		unit(206, model.UnitRented, &twoRoom, &large),
		unit(207, model.UnitRented, nil, nil),
		unit(301, model.UnitRented, &oneHalf, &small),
		unit(302, model.UnitRented, nil, nil),
		unit(303, model.UnitRented, nil, nil),
		unit(304, model.UnitRented, nil, nil),
		unit(305, model.UnitRented, &twoRoom, &large),
		unit(306, model.UnitRented, &twoRoom, &large),
		unit(307, model.UnitRented, nil, nil),
		unit(401, model.UnitRented, &oneHalf, &small),
		unit(402, model.UnitRented, nil, nil),
		unit(403, model.UnitRented, nil, nil),
		unit(404, model.UnitRented, nil, nil),
		unit(405, model.UnitMaintenance, nil, nil),
	}
}

func unitID(room int) string {
	return "PINE-" + strconv.Itoa(room)
}
