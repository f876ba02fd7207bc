package util

import (
	"encoding/json"
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

type HAAvdvertisementAvailability struct {
	Topic               string `json:"topic"`                 // : "room_node/office/online"
	PayloadAvailable    string `json:"payload_available"`     // : "online"
	PayloadNotAvailable string `json:"payload_not_available"` // : "offline"
}

type HADeviceSpec struct {
	Name        string   `json:"name"` // : "office"
	Identifiers []string `json:"ids"`  // : ["room_node_office"]
}

type HAAdvertisement struct { //nolint:govet // struct layout optimized for JSON field order
	HAAvdvertisementAvailability []HAAvdvertisementAvailability `json:"availability"`
	Device                       HADeviceSpec                   `json:"device"`
	UniqueID                     string                         `json:"uniq_id"`     // "room_node-office-fan"
	Name                         string                         `json:"name"`        // : "fan"
	StateTopic                   string                         `json:"state_topic"` // : "room_node/office/fan"
	PayloadOn                    string                         `json:"payload_on,omitempty"`
	PayloadOff                   string                         `json:"payload_off,omitempty"`
	UnitOfMeasurement            string                         `json:"unit_of_measurement,omitempty"`
	DeviceClass                  string                         `json:"device_class"` // : "occupancy"
	Platform                     string                         `json:"platform"`     // "binary_sensor"
	Qos                          int                            `json:"qos"`
}

// HAEntity is one value the node exposes to Home Assistant.
type HAEntity struct {
	Name        string
	Platform    string
	DeviceClass string
	Unit        string
}

// NodeEntities are published by every node: the two inputs and the two outputs.
var NodeEntities = []HAEntity{
	{Name: "temperature", Platform: "sensor", DeviceClass: "temperature", Unit: "°C"},
	{Name: "presence", Platform: "binary_sensor", DeviceClass: "occupancy"},
	{Name: "fan", Platform: "binary_sensor", DeviceClass: "running"},
	{Name: "light", Platform: "binary_sensor", DeviceClass: "light"},
}

func (ha HAAdvertisement) ToJson() string {
	data, err := json.Marshal(ha)
	if err != nil {
		Logger.Error().Msgf("Error marshalling HAAdvertisement: %v", err)
		return ""
	}
	return string(data)
}

func ConstructHAAdvertisement(node string, entity HAEntity, stateTopic, availabilityTopic string) HAAdvertisement {
	ha := HAAdvertisement{
		Name:       entity.Name,
		StateTopic: stateTopic,
		HAAvdvertisementAvailability: []HAAvdvertisementAvailability{
			{
				Topic:               availabilityTopic,
				PayloadAvailable:    "online",
				PayloadNotAvailable: "offline",
			},
		},
		Qos:         0,
		UniqueID:    "room_node-" + node + "-" + entity.Name,
		DeviceClass: entity.DeviceClass,
		Platform:    entity.Platform,
		Device: HADeviceSpec{
			Name:        node,
			Identifiers: []string{"room_node_" + node},
		},
	}
	if entity.Platform == "binary_sensor" {
		ha.PayloadOn = "true"
		ha.PayloadOff = "false"
	} else {
		ha.UnitOfMeasurement = entity.Unit
	}
	return ha
}

func HAConfigTopic(node string, entity HAEntity) string {
	return "homeassistant/" + entity.Platform + "/" + node + "/" + entity.Name + "/config"
}

func AdvertiseHA(m Model, prefix string, client MQTT.Client) error {
	for _, entity := range NodeEntities {
		ha := ConstructHAAdvertisement(m.Name, entity, m.StateTopic(prefix, entity.Name), m.AvailabilityTopic(prefix))
		if token := client.Publish(HAConfigTopic(m.Name, entity), 0, true, ha.ToJson()); token.Wait() && token.Error() != nil {
			return fmt.Errorf("publishing %s advertisement: %w", entity.Name, token.Error())
		}
	}
	return nil
}
