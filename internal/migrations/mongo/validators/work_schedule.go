package validators

import "go.mongodb.org/mongo-driver/bson"

var workDaySchema = bson.M{
	"bsonType": "object",
	"required": []string{"weekday", "active", "start_time", "end_time"},
	"properties": bson.M{
		"weekday": bson.M{
			"bsonType": "int",
			"minimum":  0,
			"maximum":  6,
		},
		"active": bson.M{
			"bsonType": "bool",
		},
		"start_time": bson.M{
			"bsonType": "string",
			"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
		},
		"end_time": bson.M{
			"bsonType": "string",
			"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
		},
		"lunch_breaks": bson.M{
			"bsonType": "array",
			"items": bson.M{
				"bsonType": "object",
				"required": []string{"enabled", "start_time", "end_time"},
				"properties": bson.M{
					"enabled": bson.M{
						"bsonType": "bool",
					},
					"start_time": bson.M{
						"bsonType": "string",
						"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
					},
					"end_time": bson.M{
						"bsonType": "string",
						"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
					},
				},
			},
		},
	},
}

var WorkScheduleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"specialist_id",
			"enabled",
			"booking_horizon_months",
			"work_days",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"specialist_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"enabled": bson.M{
				"bsonType": "bool",
			},

			"booking_horizon_months": bson.M{
				"enum": []int{2, 6, 12},
			},

			"work_days": bson.M{
				"bsonType": "array",
				"minItems": 7,
				"maxItems": 7,
				"items":    workDaySchema,
			},

			"vacations": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"enabled", "start_date", "end_date"},
					"properties": bson.M{
						"enabled": bson.M{
							"bsonType": "bool",
						},
						"start_date": bson.M{
							"bsonType": "string",
							"pattern":  "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
						},
						"end_date": bson.M{
							"bsonType": "string",
							"pattern":  "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
						},
						"description": bson.M{
							"bsonType":  "string",
							"maxLength": 200,
						},
					},
				},
			},
		},
	},
}
